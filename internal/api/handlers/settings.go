package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/auralabs/aura/internal/domain/settings"
)

// SettingsHandler handles HTTP requests for application settings.
type SettingsHandler struct {
	settings *settings.Service
}

// NewSettingsHandler creates a new SettingsHandler instance.
func NewSettingsHandler(svc *settings.Service) *SettingsHandler {
	return &SettingsHandler{settings: svc}
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}

	writeJSON(w, http.StatusOK, current)
}

// UpdateSettings handles PUT /api/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.settings.Update(r.Context(), req)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidPreferences) {
			writeError(w, http.StatusBadRequest, "preferences must be a JSON object")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
