package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mlevan/imagetier/internal/api"
)

// GenerateExpiringLink handles GET /expiring-link/{image_id} -- returns the
// image's expiring link for requesters whose tier allows issuance (Enterprise
// or staff with the canonical tiers). Owner-or-staff only.
func (h *Handler) GenerateExpiringLink(w http.ResponseWriter, r *http.Request) {
	user := api.GetUser(r.Context())
	imageID := chi.URLParam(r, "image_id")

	img, err := h.DB.GetImage(imageID)
	if err != nil {
		api.NotFound(w, "image not found")
		return
	}

	if img.UserID != user.ID && !user.IsStaff {
		api.Forbidden(w, "You do not have permission to perform this action.")
		return
	}

	caps := h.resolveCaps(w, user)
	if caps == nil {
		return
	}
	if !caps.CanIssueExpiringLink {
		api.Forbidden(w, "You do not have permission to perform this action.")
		return
	}

	lnk := img.ExpiringLink
	if lnk == "" {
		lnk, err = h.Links.Mint(img)
		if err != nil {
			api.ServerError(w, "failed to generate expiring link")
			return
		}
		if err := h.DB.SetExpiringLink(img.ID, lnk); err != nil {
			slog.Error("failed to cache expiring link", "image_id", img.ID, "error", err)
		}
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"expiring_image_link": lnk})
}
