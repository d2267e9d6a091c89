package handlers

import (
	"net/http"

	"moment-backend/internal/middleware"
	"moment-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	onlyLast := r.URL.Query().Get("onlyLast") == "true"

	notifications, err := h.notificationService.List(ctx, onlyLast)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list notifications")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, notifications)
}

// Send handles POST /api/v1/admin/notifications
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	notification, err := h.notificationService.SendDailyTrigger(ctx)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send daily trigger")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("notification_id", notification.ID).
		Str("external_id", notification.ExternalID).
		Msg("Daily trigger sent")

	respondJSON(w, http.StatusCreated, notification)
}
