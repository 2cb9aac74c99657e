package handlers

import (
	"net/http"

	"social-graph-backend/internal/middleware"
	"social-graph-backend/internal/models"
	"social-graph-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// NotificationsResponse is a page of notifications
type NotificationsResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int                    `json:"total"`
}

// ListNotifications handles GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, offset := pagination(r)

	notifications, total, err := h.notificationService.List(ctx, middleware.GetUserID(ctx), limit, offset)
	if err != nil {
		respondServiceError(w, err, "Failed to get notifications")
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}

	respondJSON(w, http.StatusOK, NotificationsResponse{Notifications: notifications, Total: total})
}

// MarkRead handles POST /api/v1/notifications/{notification_id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notificationID := chi.URLParam(r, "notification_id")
	if err := validateID("notification_id", notificationID); err != nil {
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
		return
	}

	if err := h.notificationService.MarkRead(ctx, middleware.GetUserID(ctx), notificationID); err != nil {
		respondServiceError(w, err, "Failed to mark notification read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
