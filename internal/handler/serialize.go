package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mlevan/imagetier/internal/api"
	"github.com/mlevan/imagetier/internal/model"
	"github.com/mlevan/imagetier/internal/tier"
)

// resolveCaps resolves the requester's capabilities and writes the
// appropriate error response on failure. Configuration errors are the
// client's problem to fix but worth operator attention, so they are logged.
func (h *Handler) resolveCaps(w http.ResponseWriter, user *model.User) *tier.Capabilities {
	caps, err := h.Tiers.Resolve(user)
	if err != nil {
		switch {
		case errors.Is(err, tier.ErrTierNotConfigured):
			slog.Warn("tier not configured", "user", user.ID, "tier", user.Tier)
			api.BadRequest(w, "Account tier not assigned to user.")
		case errors.Is(err, tier.ErrNoMatchingSizes):
			slog.Warn("permitted sizes missing from catalog", "user", user.ID, "tier", user.Tier)
			api.BadRequest(w, "Required thumbnail sizes do not exist.")
		default:
			api.ServerError(w, "failed to resolve account tier")
		}
		return nil
	}
	return caps
}

// renderImage builds the tier-aware representation of an image: which
// thumbnail fields appear, whether the original URL is exposed and whether
// the expiring link is included all follow from the requester's capabilities.
// Derived thumbnails for permitted sizes are ensured as a side step; a single
// broken asset yields a null field instead of failing the whole response.
func (h *Handler) renderImage(caps *tier.Capabilities, img *model.Image) map[string]interface{} {
	base := strings.TrimRight(h.Config.BaseURL, "/")

	rep := map[string]interface{}{
		"id":                  img.ID,
		"user":                img.UserID,
		"filename":            img.Filename,
		"expiry_time":         img.ExpirySeconds,
		"uploaded_at":         img.UploadedAt,
		"image":               nil,
		"expiring_image_link": nil,
	}

	if caps.CanViewOriginal {
		rep["image"] = fmt.Sprintf("%s/images/%s/original", base, img.ID)
	}

	for _, dimension := range caps.Sizes {
		key := fmt.Sprintf("thumbnail_%d", dimension)
		if _, err := h.Thumbs.GetOrCreate(img, dimension); err != nil {
			slog.Error("thumbnail generation failed",
				"image_id", img.ID, "dimension", dimension, "error", err)
			rep[key] = nil
			continue
		}
		rep[key] = fmt.Sprintf("%s/images/%s/thumbnail/%d", base, img.ID, dimension)
	}

	// Sizes with a fully generated derived asset.
	generated := []int{}
	if ths, err := h.DB.ListThumbnails(img.ID); err == nil {
		for _, th := range ths {
			if th.StoragePath != "" {
				generated = append(generated, th.Dimension)
			}
		}
	}
	rep["thumbnails"] = generated

	if caps.CanIssueExpiringLink {
		lnk := img.ExpiringLink
		if lnk == "" {
			fresh, err := h.Links.Mint(img)
			if err == nil {
				lnk = fresh
				if err := h.DB.SetExpiringLink(img.ID, lnk); err != nil {
					slog.Error("failed to cache expiring link", "image_id", img.ID, "error", err)
				}
			}
		}
		if lnk != "" {
			rep["expiring_image_link"] = lnk
		}
	}

	return rep
}
