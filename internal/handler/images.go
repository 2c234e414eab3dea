package handler

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlevan/imagetier/internal/api"
	"github.com/mlevan/imagetier/internal/imageproc"
	"github.com/mlevan/imagetier/internal/model"
)

// UploadImage handles POST /upload -- multipart image upload with an optional
// expiry_time field. Validation runs before any storage or database write.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user := api.GetUser(r.Context())

	caps := h.resolveCaps(w, user)
	if caps == nil {
		return
	}

	if err := r.ParseMultipartForm(h.Config.MaxUploadBytes); err != nil {
		api.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		api.BadRequest(w, "Image file not provided.")
		return
	}
	defer file.Close()

	if !imageproc.AllowedExtension(header.Filename) {
		api.BadRequest(w, "Unsupported file extension. Only JPG and PNG are supported.")
		return
	}

	expirySeconds := model.DefaultExpirySeconds
	if v := r.FormValue("expiry_time"); v != "" {
		expirySeconds, err = strconv.Atoi(v)
		if err != nil {
			api.BadRequest(w, "Image expiry link duration must be numbers.")
			return
		}
	}
	if expirySeconds < model.MinExpirySeconds || expirySeconds > model.MaxExpirySeconds {
		api.BadRequest(w, "Image expiry link duration must be between 300 and 30000.")
		return
	}

	imageID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	storagePath := "images/" + imageID + ext

	if _, err := h.Store.Store(storagePath, file); err != nil {
		api.ServerError(w, "failed to store image")
		return
	}

	img := &model.Image{
		ID:            imageID,
		UserID:        user.ID,
		Filename:      filepath.Base(header.Filename),
		StoragePath:   storagePath,
		ExpirySeconds: expirySeconds,
		UploadedAt:    time.Now().UTC(),
	}

	if err := h.DB.CreateImage(img); err != nil {
		// Roll back the blob so a failed insert leaves nothing behind.
		_ = h.Store.Delete(storagePath)
		api.ServerError(w, "failed to create image record")
		return
	}

	// The TTL was just set, so cache the expiring link now. Exposure of the
	// cached value stays gated by the requester's capabilities.
	if lnk, err := h.Links.Mint(img); err == nil {
		img.ExpiringLink = lnk
		if err := h.DB.SetExpiringLink(img.ID, lnk); err != nil {
			slog.Error("failed to cache expiring link", "image_id", img.ID, "error", err)
		}
	}

	api.WriteJSON(w, http.StatusCreated, h.renderImage(caps, img))
}

// ListImages handles GET /list -- all images owned by the requester,
// serialized per the requester's tier.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	user := api.GetUser(r.Context())

	caps := h.resolveCaps(w, user)
	if caps == nil {
		return
	}

	images, err := h.DB.ListImagesByUser(user.ID)
	if err != nil {
		api.ServerError(w, "failed to list images")
		return
	}

	reps := make([]map[string]interface{}, 0, len(images))
	for _, img := range images {
		reps = append(reps, h.renderImage(caps, img))
	}

	api.WriteJSON(w, http.StatusOK, reps)
}
