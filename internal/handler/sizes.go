package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mlevan/imagetier/internal/api"
)

// thumbnailSizeRequest is the JSON body for adding a catalog size.
type thumbnailSizeRequest struct {
	Dimension int `json:"dimension"`
}

// CreateThumbnailSize handles POST /thumbnail-sizes. Staff only. The catalog
// is a set: duplicate dimensions are rejected.
func (h *Handler) CreateThumbnailSize(w http.ResponseWriter, r *http.Request) {
	var req thumbnailSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Dimension <= 0 {
		api.BadRequest(w, "dimension must be a positive integer")
		return
	}

	if err := h.DB.CreateThumbnailSize(req.Dimension); err != nil {
		if strings.Contains(strings.ToUpper(err.Error()), "UNIQUE") {
			api.Conflict(w, "thumbnail size already exists")
			return
		}
		api.BadRequest(w, "failed to create thumbnail size")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]int{"dimension": req.Dimension})
}

// ListThumbnailSizes handles GET /thumbnail-sizes. Staff only.
func (h *Handler) ListThumbnailSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.DB.ListThumbnailSizes()
	if err != nil {
		api.ServerError(w, "failed to list thumbnail sizes")
		return
	}
	if sizes == nil {
		sizes = []int{}
	}
	api.WriteJSON(w, http.StatusOK, map[string][]int{"sizes": sizes})
}

// DeleteThumbnailSize handles DELETE /thumbnail-sizes/{dimension}. Staff only.
func (h *Handler) DeleteThumbnailSize(w http.ResponseWriter, r *http.Request) {
	dimension, err := strconv.Atoi(chi.URLParam(r, "dimension"))
	if err != nil {
		api.BadRequest(w, "invalid dimension")
		return
	}

	if err := h.DB.DeleteThumbnailSize(dimension); err != nil {
		api.NotFound(w, "thumbnail size not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, struct{}{})
}
