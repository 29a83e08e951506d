package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/auralabs/aura/internal/infra/image"
)

// ImageHandler handles HTTP requests for image generation.
type ImageHandler struct {
	generator *image.Generator
}

// NewImageHandler creates a new ImageHandler instance.
func NewImageHandler(generator *image.Generator) *ImageHandler {
	return &ImageHandler{generator: generator}
}

// GenerateImageRequest is the request body for generating an image.
type GenerateImageRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateImageResponse is the response body for a generated image.
type GenerateImageResponse struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}

// GenerateImage handles POST /api/image/generate. The generation chain
// always produces some image URL, so this endpoint only fails on bad input.
func (h *ImageHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req GenerateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	writeJSON(w, http.StatusOK, GenerateImageResponse{
		ImageURL: h.generator.Generate(r.Context(), req.Prompt),
		Prompt:   req.Prompt,
	})
}
