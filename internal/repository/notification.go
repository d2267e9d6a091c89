package repository

import (
	"context"
	"fmt"
	"time"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// dayOf returns the calendar day of t in t's own location, as a bare date.
// The day key must match the application-level midnight window, so it is
// computed here rather than by casting in the database, where the session
// TimeZone could shift it.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create inserts a notification. The sent_on day column carries a
// partial unique index for the bereal type, so a concurrent second daily
// trigger loses here with a Conflict rather than double-inserting.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, type, content, external_id, sent_at, sent_on)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, n.ID, n.Type, n.Content, n.ExternalID, n.SentAt, dayOf(n.SentAt))
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, "notification already sent today", err)
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CountByTypeBetween counts notifications of the given type with sentAt in
// [from, to).
func (r *NotificationRepository) CountByTypeBetween(ctx context.Context, notifType string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE type = $1 AND sent_at >= $2 AND sent_at < $3
	`
	var count int
	if err := r.db.QueryRow(ctx, query, notifType, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// LatestByType retrieves the most recent notification of the given type, or
// nil if none has ever been sent.
func (r *NotificationRepository) LatestByType(ctx context.Context, notifType string) (*models.Notification, error) {
	query := `
		SELECT id, type, content, external_id, sent_at
		FROM notifications
		WHERE type = $1
		ORDER BY sent_at DESC
		LIMIT 1
	`
	var n models.Notification
	err := r.db.QueryRow(ctx, query, notifType).Scan(
		&n.ID, &n.Type, &n.Content, &n.ExternalID, &n.SentAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest notification: %w", err)
	}
	return &n, nil
}

// List retrieves all notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context) ([]*models.Notification, error) {
	query := `
		SELECT id, type, content, external_id, sent_at
		FROM notifications
		ORDER BY sent_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.Type, &n.Content, &n.ExternalID, &n.SentAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
