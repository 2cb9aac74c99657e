package handlers

import (
	"net/http"

	"social-graph-backend/internal/middleware"
	"social-graph-backend/internal/models"
	"social-graph-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// MessageHandler handles direct message history requests
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// GetHistory handles GET /api/v1/messages/{user_id}
func (h *MessageHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	otherID := chi.URLParam(r, "user_id")
	if err := validateID("user_id", otherID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}
	limit, offset := pagination(r)

	messages, err := h.messageService.History(ctx, middleware.GetUserID(ctx), otherID, limit, offset)
	if err != nil {
		respondServiceError(w, err, "Failed to get messages")
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	respondJSON(w, http.StatusOK, messages)
}
