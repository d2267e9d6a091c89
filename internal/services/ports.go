package services

import (
	"context"
	"time"

	"moment-backend/internal/models"
)

// Storage ports consumed by the services. The pgx repositories satisfy
// these; tests swap in in-memory fakes.

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	UpdateProfilePicture(ctx context.Context, userID string, picture *models.Image) error
	Delete(ctx context.Context, id string) error
}

// FriendshipStore persists the friendship ledger.
type FriendshipStore interface {
	Create(ctx context.Context, f *models.Friendship) error
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, statusFilter models.FriendshipStatus, limit, offset int) ([]*models.Friendship, int, error)
	IsFriend(ctx context.Context, userAID, userBID string) (bool, error)
	AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error)
	DeleteByUser(ctx context.Context, userID string) error
}

// PublicationStore persists publications.
type PublicationStore interface {
	Create(ctx context.Context, p *models.Publication) error
	GetByID(ctx context.Context, id string) (*models.Publication, error)
	LatestByUser(ctx context.Context, userID string) (*models.Publication, error)
	ListByAuthors(ctx context.Context, authorIDs []string, after *time.Time, limit, offset int) ([]*models.Publication, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.Publication, int, error)
	AllByUser(ctx context.Context, userID string) ([]*models.Publication, error)
	Delete(ctx context.Context, id string) error
}

// NotificationStore persists broadcast notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	CountByTypeBetween(ctx context.Context, notifType string, from, to time.Time) (int, error)
	LatestByType(ctx context.Context, notifType string) (*models.Notification, error)
	List(ctx context.Context) ([]*models.Notification, error)
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPublication(ctx context.Context, publicationID string) ([]*models.Comment, error)
	ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByPublication(ctx context.Context, publicationID string) error
}

// ImageStore uploads and deletes CDN-hosted images.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (models.Image, error)
	Delete(ctx context.Context, key string) error
}

// PushDispatcher delivers a broadcast message to every registered device and
// returns the external dispatch id.
type PushDispatcher interface {
	Dispatch(ctx context.Context, content string) (string, error)
}

// Notifier fans a realtime notice out to currently-connected recipients.
// Best-effort: disconnected recipients miss the notice.
type Notifier interface {
	Notify(userIDs []string, message WSMessage)
}
