package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mlevan/imagetier/internal/api"
	"github.com/mlevan/imagetier/internal/model"
)

// accountTierRequest is the JSON body for creating or updating a tier.
type accountTierRequest struct {
	Name              string `json:"name"`
	ThumbnailSizes    []int  `json:"thumbnail_sizes"`
	AllowOriginalLink bool   `json:"allow_original_link"`
	AllowExpiringLink bool   `json:"allow_expiring_link"`
}

// CreateTier handles POST /account-tiers. Staff only.
func (h *Handler) CreateTier(w http.ResponseWriter, r *http.Request) {
	var req accountTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		api.BadRequest(w, "tier name is required")
		return
	}

	tier := &model.AccountTier{
		Name:              req.Name,
		ThumbnailSizes:    req.ThumbnailSizes,
		AllowOriginalLink: req.AllowOriginalLink,
		AllowExpiringLink: req.AllowExpiringLink,
	}
	if err := h.DB.CreateTier(tier); err != nil {
		if strings.Contains(strings.ToUpper(err.Error()), "UNIQUE") {
			api.Conflict(w, "tier already exists")
			return
		}
		api.BadRequest(w, "failed to create tier")
		return
	}

	api.WriteJSON(w, http.StatusCreated, tier)
}

// ListTiers handles GET /account-tiers. Staff only.
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.DB.ListTiers()
	if err != nil {
		api.ServerError(w, "failed to list tiers")
		return
	}
	if tiers == nil {
		tiers = []*model.AccountTier{}
	}
	api.WriteJSON(w, http.StatusOK, tiers)
}

// GetTier handles GET /account-tiers/{tier_name}. Staff only.
func (h *Handler) GetTier(w http.ResponseWriter, r *http.Request) {
	tier, err := h.DB.GetTier(chi.URLParam(r, "tier_name"))
	if err != nil {
		api.NotFound(w, "tier not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, tier)
}

// UpdateTier handles PUT /account-tiers/{tier_name}. Staff only.
func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "tier_name")

	var req accountTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid JSON body")
		return
	}

	tier := &model.AccountTier{
		Name:              name,
		ThumbnailSizes:    req.ThumbnailSizes,
		AllowOriginalLink: req.AllowOriginalLink,
		AllowExpiringLink: req.AllowExpiringLink,
	}
	if err := h.DB.UpdateTier(tier); err != nil {
		api.NotFound(w, "tier not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, tier)
}

// DeleteTier handles DELETE /account-tiers/{tier_name}. Staff only.
func (h *Handler) DeleteTier(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.DeleteTier(chi.URLParam(r, "tier_name")); err != nil {
		api.NotFound(w, "tier not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, struct{}{})
}
