package models

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	PushToken      *string   `json:"push_token,omitempty"`
	ProfilePicture *Image    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FriendshipStatus is the lifecycle state of a friendship.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship represents a relation between exactly two users.
// UserAID and UserBID are stored in canonical (lexicographic) order so the
// unordered pair can carry a uniqueness constraint; RequesterID records who
// initiated and is unaffected by the ordering.
type Friendship struct {
	ID          string           `json:"id"`
	UserAID     string           `json:"user_a_id"`
	UserBID     string           `json:"user_b_id"`
	RequesterID string           `json:"requester_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Involves reports whether userID is one of the two parties.
func (f *Friendship) Involves(userID string) bool {
	return f.UserAID == userID || f.UserBID == userID
}

// OtherUser returns the party that is not userID. Callers must check
// Involves first.
func (f *Friendship) OtherUser(userID string) string {
	if f.UserAID == userID {
		return f.UserBID
	}
	return f.UserAID
}

// Image is a stored CDN object: a public URL plus the key needed to delete it.
type Image struct {
	URL       string `json:"url"`
	ObjectKey string `json:"object_key"`
}

// Publication is one capture event: paired front/back camera images with a
// location. Immutable after creation except for moderation deletes.
type Publication struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FrontImage Image     `json:"front_camera"`
	BackImage  Image     `json:"back_camera"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	CreatedAt  time.Time `json:"created_at"`
}

// NotificationTypeBeReal is the daily trigger type that opens a posting
// window. Other types may be stored but do not gate posting.
const NotificationTypeBeReal = "bereal"

// Notification is a broadcast push that has been dispatched and recorded.
type Notification struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	ExternalID string    `json:"external_id"`
	SentAt     time.Time `json:"sent_at"`
}

// Comment belongs to a publication. ParentID, when set, points at another
// comment on the same publication, forming a reply tree.
type Comment struct {
	ID            string    `json:"id"`
	PublicationID string    `json:"publication_id"`
	UserID        string    `json:"user_id"`
	Content       string    `json:"content"`
	ParentID      *string   `json:"parent_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
