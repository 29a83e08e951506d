package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/auralabs/aura/internal/domain/credential"
)

// Providers whose keys the settings screen manages.
var keyedProviders = []string{"gemini", "deepseek", "stability", "huggingface"}

// APIKeyHandler handles HTTP requests for provider API keys.
type APIKeyHandler struct {
	credentials *credential.Service
}

// NewAPIKeyHandler creates a new APIKeyHandler instance.
func NewAPIKeyHandler(credentials *credential.Service) *APIKeyHandler {
	return &APIKeyHandler{credentials: credentials}
}

// SaveAPIKeysRequest is the request body for saving provider keys.
// Absent fields leave the stored key untouched.
type SaveAPIKeysRequest struct {
	Gemini      *string `json:"gemini"`
	DeepSeek    *string `json:"deepseek"`
	Stability   *string `json:"stability"`
	HuggingFace *string `json:"huggingface"`
}

// SaveAPIKeysResponse reports a partial save: which providers failed and
// the resulting presence flags. Secrets are never echoed back.
type SaveAPIKeysResponse struct {
	Message string          `json:"message"`
	Status  map[string]bool `json:"status"`
}

// GetStatus handles GET /api/settings/api-keys
func (h *APIKeyHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.credentials.Status(r.Context(), keyedProviders...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read key status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// SaveKeys handles POST /api/settings/api-keys. Each provided key is saved
// independently; if some saves fail the response is 207 with the failures
// named, so one bad key never blocks the others.
func (h *APIKeyHandler) SaveKeys(w http.ResponseWriter, r *http.Request) {
	var req SaveAPIKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	secrets := map[string]*string{
		"gemini":      req.Gemini,
		"deepseek":    req.DeepSeek,
		"stability":   req.Stability,
		"huggingface": req.HuggingFace,
	}

	var provided int
	var failures []string
	for _, provider := range keyedProviders {
		secret := secrets[provider]
		if secret == nil {
			continue
		}
		provided++
		if _, err := h.credentials.Upsert(r.Context(), provider, *secret); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", provider, err))
		}
	}
	if provided == 0 {
		writeError(w, http.StatusBadRequest, "no api keys provided")
		return
	}

	status, err := h.credentials.Status(r.Context(), keyedProviders...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read key status")
		return
	}

	if len(failures) > 0 {
		writeJSON(w, http.StatusMultiStatus, SaveAPIKeysResponse{
			Message: "some api keys were not saved: " + strings.Join(failures, "; "),
			Status:  status,
		})
		return
	}

	// full success mirrors GetStatus: the bare presence flags
	writeJSON(w, http.StatusOK, status)
}
