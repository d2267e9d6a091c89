package services

import (
	"context"
	"time"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/google/uuid"
)

// Friendship response decisions.
const (
	DecisionAccept = "accept"
	DecisionDeny   = "deny"
)

// FriendshipService is the single source of truth for who is friends with
// whom and who has pending requests.
type FriendshipService struct {
	friendshipStore FriendshipStore
	userStore       UserStore
	notifier        Notifier
}

// NewFriendshipService creates a new friendship service
func NewFriendshipService(friendshipStore FriendshipStore, userStore UserStore, notifier Notifier) *FriendshipService {
	return &FriendshipService{
		friendshipStore: friendshipStore,
		userStore:       userStore,
		notifier:        notifier,
	}
}

// canonicalPair returns the two ids in lexicographic order. The ordering
// exists only so the storage uniqueness constraint covers the unordered
// pair.
func canonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Request creates a pending friendship from requesterID towards targetID.
// The storage unique index is the sole serialization point for concurrent
// requests over the same pair; the loser gets a Conflict.
func (s *FriendshipService) Request(ctx context.Context, requesterID, targetID string) (*models.Friendship, error) {
	if requesterID == targetID {
		return nil, apperr.New(apperr.InvalidArgument, "cannot add yourself as a friend")
	}

	if _, err := s.userStore.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	userAID, userBID := canonicalPair(requesterID, targetID)
	friendship := &models.Friendship{
		ID:          uuid.New().String(),
		UserAID:     userAID,
		UserBID:     userBID,
		RequesterID: requesterID,
		Status:      models.FriendshipPending,
		CreatedAt:   time.Now(),
	}

	if err := s.friendshipStore.Create(ctx, friendship); err != nil {
		return nil, err
	}

	return friendship, nil
}

// Respond accepts or denies a pending friendship. Only the non-requesting
// party may respond. Deny deletes the record outright so the pair can
// request again later.
func (s *FriendshipService) Respond(ctx context.Context, friendshipID, responderID, decision string) (*models.Friendship, error) {
	if decision != DecisionAccept && decision != DecisionDeny {
		return nil, apperr.New(apperr.InvalidArgument, "decision must be accept or deny")
	}

	friendship, err := s.friendshipStore.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if friendship.Status != models.FriendshipPending {
		return nil, apperr.New(apperr.NotFound, "friend request not found")
	}
	if !friendship.Involves(responderID) || responderID == friendship.RequesterID {
		return nil, apperr.New(apperr.Forbidden, "you are not authorized to respond to this request")
	}

	if decision == DecisionDeny {
		if err := s.friendshipStore.Delete(ctx, friendshipID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.friendshipStore.UpdateStatus(ctx, friendshipID, models.FriendshipAccepted); err != nil {
		return nil, err
	}
	friendship.Status = models.FriendshipAccepted

	s.notifier.Notify([]string{friendship.RequesterID}, WSMessage{
		Type: "friend_request_accepted",
		Data: friendship,
	})

	return friendship, nil
}

// Remove deletes a friendship in any status: unfriending, or cancelling
// one's own pending request. Only a party to the friendship may remove it.
func (s *FriendshipService) Remove(ctx context.Context, friendshipID, actorID string) error {
	friendship, err := s.friendshipStore.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if !friendship.Involves(actorID) {
		return apperr.New(apperr.Forbidden, "you are not a party to this friendship")
	}

	return s.friendshipStore.Delete(ctx, friendshipID)
}

// List returns friendships involving userID. Without a status filter the
// view is accepted relations plus incoming pending requests; outgoing
// pending requests are excluded since the viewer already knows about them.
func (s *FriendshipService) List(ctx context.Context, userID string, statusFilter models.FriendshipStatus, page, pageSize int) ([]*models.Friendship, int, error) {
	if statusFilter != "" && statusFilter != models.FriendshipPending && statusFilter != models.FriendshipAccepted {
		return nil, 0, apperr.New(apperr.InvalidArgument, "status must be pending or accepted")
	}

	page, pageSize = normalizePagination(page, pageSize)
	return s.friendshipStore.ListByUser(ctx, userID, statusFilter, pageSize, pageSize*(page-1))
}

// IsFriend reports whether an accepted friendship exists between the two
// users. Self-comparison is always false.
func (s *FriendshipService) IsFriend(ctx context.Context, userA, userB string) (bool, error) {
	if userA == userB {
		return false, nil
	}
	a, b := canonicalPair(userA, userB)
	return s.friendshipStore.IsFriend(ctx, a, b)
}

// AcceptedFriendIDs returns the ids of userID's accepted friends,
// de-duplicated, never including userID itself.
func (s *FriendshipService) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	return s.friendshipStore.AcceptedFriendIDs(ctx, userID)
}

// RemoveAllForUser deletes every friendship involving userID. Part of the
// user-deletion cascade.
func (s *FriendshipService) RemoveAllForUser(ctx context.Context, userID string) error {
	return s.friendshipStore.DeleteByUser(ctx, userID)
}
