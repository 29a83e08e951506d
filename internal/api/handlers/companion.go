package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/auralabs/aura/internal/domain/companion"
	"github.com/go-chi/chi/v5"
)

// CompanionHandler handles HTTP requests for companion operations.
type CompanionHandler struct {
	companions *companion.Service
}

// NewCompanionHandler creates a new CompanionHandler instance.
func NewCompanionHandler(companions *companion.Service) *CompanionHandler {
	return &CompanionHandler{companions: companions}
}

// CreateCompanionRequest is the request body for creating a companion.
type CreateCompanionRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// CreateCompanion handles POST /api/companions
func (h *CompanionHandler) CreateCompanion(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.companions.Create(r.Context(), companion.CreateInput{
		Name:        req.Name,
		Role:        req.Role,
		Personality: req.Personality,
		Description: req.Description,
		Avatar:      req.Avatar,
	})
	if err != nil {
		if errors.Is(err, companion.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create companion")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetCompanion handles GET /api/companions/{id}
func (h *CompanionHandler) GetCompanion(w http.ResponseWriter, r *http.Request) {
	found, err := h.companions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, companion.ErrNotFound) {
			writeError(w, http.StatusNotFound, "companion not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get companion")
		return
	}

	writeJSON(w, http.StatusOK, found)
}

// ListCompanions handles GET /api/companions
func (h *CompanionHandler) ListCompanions(w http.ResponseWriter, r *http.Request) {
	companions, err := h.companions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list companions")
		return
	}
	if companions == nil {
		companions = []*companion.Companion{}
	}

	writeJSON(w, http.StatusOK, companions)
}
