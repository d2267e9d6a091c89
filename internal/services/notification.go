package services

import (
	"context"
	"time"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/google/uuid"
)

// dailyTriggerContent is the broadcast message that opens a posting window.
const dailyTriggerContent = "Time to be real"

// NotificationService guards broadcast creation: at most one daily trigger
// per calendar day, coupled to external push delivery.
type NotificationService struct {
	notificationStore NotificationStore
	dispatcher        PushDispatcher
	now               func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationStore NotificationStore, dispatcher PushDispatcher) *NotificationService {
	return &NotificationService{
		notificationStore: notificationStore,
		dispatcher:        dispatcher,
		now:               time.Now,
	}
}

// SendDailyTrigger dispatches today's posting trigger: count today's
// triggers, call the push collaborator, then persist. A dispatch failure
// aborts with nothing persisted; the partial unique index on the sent_on
// day key closes the concurrent check-then-insert race.
func (s *NotificationService) SendDailyTrigger(ctx context.Context) (*models.Notification, error) {
	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24 * time.Hour)

	count, err := s.notificationStore.CountByTypeBetween(ctx, models.NotificationTypeBeReal, todayStart, todayEnd)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.New(apperr.Conflict, "notification already sent today")
	}

	externalID, err := s.dispatcher.Dispatch(ctx, dailyTriggerContent)
	if err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, "failed to send notification", err)
	}

	notification := &models.Notification{
		ID:         uuid.New().String(),
		Type:       models.NotificationTypeBeReal,
		Content:    dailyTriggerContent,
		ExternalID: externalID,
		SentAt:     now,
	}
	if err := s.notificationStore.Create(ctx, notification); err != nil {
		return nil, err
	}

	return notification, nil
}

// List returns notifications, newest first. With onlyLast, just the most
// recent daily trigger (empty result if none has ever been sent).
func (s *NotificationService) List(ctx context.Context, onlyLast bool) ([]*models.Notification, error) {
	if onlyLast {
		latest, err := s.notificationStore.LatestByType(ctx, models.NotificationTypeBeReal)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, nil
		}
		return []*models.Notification{latest}, nil
	}
	return s.notificationStore.List(ctx)
}
