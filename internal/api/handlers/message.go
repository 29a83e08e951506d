package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/auralabs/aura/internal/domain/chat"
	"github.com/auralabs/aura/internal/domain/companion"
	"github.com/go-chi/chi/v5"
)

// MessageHandler handles HTTP requests for conversation messages.
type MessageHandler struct {
	companions *companion.Service
	orch       *chat.Orchestrator
}

// NewMessageHandler creates a new MessageHandler instance.
func NewMessageHandler(companions *companion.Service, orch *chat.Orchestrator) *MessageHandler {
	return &MessageHandler{companions: companions, orch: orch}
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	Content     string  `json:"content"`
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

// ListMessages handles GET /api/conversations/{companionId}/messages
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.companions.Messages(r.Context(), chi.URLParam(r, "companionId"))
	if err != nil {
		if errors.Is(err, companion.ErrNotFound) {
			writeError(w, http.StatusNotFound, "companion not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []*companion.Message{}
	}

	writeJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/conversations/{companionId}/messages.
// The response carries both sides of the exchange; generation failures are
// absorbed upstream, so a well-formed request only fails on missing
// companions or storage errors.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	result, err := h.orch.Respond(r.Context(), chat.RespondInput{
		CompanionID: chi.URLParam(r, "companionId"),
		Content:     req.Content,
		Provider:    req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, companion.ErrNotFound) {
			writeError(w, http.StatusNotFound, "companion not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
