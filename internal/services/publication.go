package services

import (
	"context"
	"fmt"
	"time"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ImageUpload is one camera capture submitted with a new publication.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PublicationService owns publication creation behind the daily posting
// window gate, the visibility feed, and moderation deletes with their CDN
// and comment cascades.
type PublicationService struct {
	publicationStore  PublicationStore
	notificationStore NotificationStore
	commentStore      CommentStore
	friendships       *FriendshipService
	images            ImageStore
	notifier          Notifier
	now               func() time.Time
}

// NewPublicationService creates a new publication service
func NewPublicationService(
	publicationStore PublicationStore,
	notificationStore NotificationStore,
	commentStore CommentStore,
	friendships *FriendshipService,
	images ImageStore,
	notifier Notifier,
) *PublicationService {
	return &PublicationService{
		publicationStore:  publicationStore,
		notificationStore: notificationStore,
		commentStore:      commentStore,
		friendships:       friendships,
		images:            images,
		notifier:          notifier,
		now:               time.Now,
	}
}

// checkPostingWindow enforces "one post per user per trigger window".
// Derived state, recomputed on every attempt: no cached already-posted flag,
// so triggers arriving at arbitrary times are handled correctly.
func (s *PublicationService) checkPostingWindow(ctx context.Context, userID string) error {
	lastTrigger, err := s.notificationStore.LatestByType(ctx, models.NotificationTypeBeReal)
	if err != nil {
		return err
	}
	lastPost, err := s.publicationStore.LatestByUser(ctx, userID)
	if err != nil {
		return err
	}

	// No trigger ever fired, or the user has never posted: nothing to gate.
	if lastTrigger == nil || lastPost == nil {
		return nil
	}
	if lastPost.CreatedAt.After(lastTrigger.SentAt) {
		return apperr.New(apperr.Forbidden, "must wait for the next trigger to post again")
	}
	return nil
}

// Create uploads both camera images and persists the publication. The
// posting window gate runs first; administrators bypass it unconditionally.
func (s *PublicationService) Create(ctx context.Context, authorID string, role models.Role, front, back ImageUpload, longitude, latitude float64) (*models.Publication, error) {
	if len(front.Data) == 0 || len(back.Data) == 0 {
		return nil, apperr.New(apperr.InvalidArgument, "both frontCamera and backCamera images are required")
	}
	if longitude < -180 || longitude > 180 || latitude < -90 || latitude > 90 {
		return nil, apperr.New(apperr.InvalidArgument, "location is out of range")
	}

	if role != models.RoleAdmin {
		if err := s.checkPostingWindow(ctx, authorID); err != nil {
			return nil, err
		}
	}

	id := uuid.New().String()

	frontImage, err := s.images.Upload(ctx, imageKey(id, "front"), contentTypeOrDefault(front.ContentType), front.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, "failed to upload front image", err)
	}
	backImage, err := s.images.Upload(ctx, imageKey(id, "back"), contentTypeOrDefault(back.ContentType), back.Data)
	if err != nil {
		// Best-effort cleanup of the already-uploaded front image.
		if delErr := s.images.Delete(ctx, frontImage.ObjectKey); delErr != nil {
			log.Error().Err(delErr).Str("object_key", frontImage.ObjectKey).Msg("Failed to clean up front image")
		}
		return nil, apperr.Wrap(apperr.DependencyFailure, "failed to upload back image", err)
	}

	publication := &models.Publication{
		ID:         id,
		UserID:     authorID,
		FrontImage: frontImage,
		BackImage:  backImage,
		Longitude:  longitude,
		Latitude:   latitude,
		CreatedAt:  s.now(),
	}

	if err := s.publicationStore.Create(ctx, publication); err != nil {
		return nil, err
	}

	if friendIDs, err := s.friendships.AcceptedFriendIDs(ctx, authorID); err == nil {
		s.notifier.Notify(friendIDs, WSMessage{
			Type: "publication_created",
			Data: map[string]interface{}{
				"publication_id": publication.ID,
				"user_id":        authorID,
			},
		})
	} else {
		log.Error().Err(err).Str("user_id", authorID).Msg("Failed to resolve friends for publication notice")
	}

	return publication, nil
}

// Feed answers "which publications can the viewer see". Three modes:
//   - targeted (targetUserID set): self always; otherwise the target must be
//     an accepted friend. Gated to posts created after the latest trigger.
//   - feed (no target): the viewer's accepted friends' posts, same cutoff.
//   - admin with no target: the un-gated listing, no friend filter, no
//     cutoff.
func (s *PublicationService) Feed(ctx context.Context, viewerID string, role models.Role, targetUserID string, page, pageSize int) ([]*models.Publication, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	limit, offset := pageSize, pageSize*(page-1)

	if targetUserID == "" && role == models.RoleAdmin {
		return s.publicationStore.ListAll(ctx, limit, offset)
	}

	cutoff, err := s.triggerCutoff(ctx)
	if err != nil {
		return nil, 0, err
	}

	if targetUserID != "" {
		if targetUserID != viewerID && role != models.RoleAdmin {
			isFriend, err := s.friendships.IsFriend(ctx, viewerID, targetUserID)
			if err != nil {
				return nil, 0, err
			}
			if !isFriend {
				return nil, 0, apperr.New(apperr.Forbidden, "you are not authorized to view this feed")
			}
		}
		return s.publicationStore.ListByAuthors(ctx, []string{targetUserID}, cutoff, limit, offset)
	}

	friendIDs, err := s.friendships.AcceptedFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	if len(friendIDs) == 0 {
		return nil, 0, nil
	}
	return s.publicationStore.ListByAuthors(ctx, friendIDs, cutoff, limit, offset)
}

// triggerCutoff returns the sentAt of the latest daily trigger, or nil if
// none has ever fired (no cutoff in that case).
func (s *PublicationService) triggerCutoff(ctx context.Context) (*time.Time, error) {
	lastTrigger, err := s.notificationStore.LatestByType(ctx, models.NotificationTypeBeReal)
	if err != nil {
		return nil, err
	}
	if lastTrigger == nil {
		return nil, nil
	}
	sentAt := lastTrigger.SentAt
	return &sentAt, nil
}

// Get retrieves a publication by ID
func (s *PublicationService) Get(ctx context.Context, id string) (*models.Publication, error) {
	return s.publicationStore.GetByID(ctx, id)
}

// Delete removes a publication for moderation. Both CDN objects are deleted
// first; a CDN failure aborts the whole operation so no orphaned external
// resources are left behind. Comments cascade before the record goes.
func (s *PublicationService) Delete(ctx context.Context, id string) error {
	publication, err := s.publicationStore.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.deleteImages(ctx, publication); err != nil {
		return err
	}
	if err := s.commentStore.DeleteByPublication(ctx, id); err != nil {
		return err
	}
	return s.publicationStore.Delete(ctx, id)
}

// DeleteAllForUser removes every publication by userID, with the same CDN
// and comment cascade as Delete. Part of the user-deletion cascade; aborts
// on the first failure.
func (s *PublicationService) DeleteAllForUser(ctx context.Context, userID string) error {
	publications, err := s.publicationStore.AllByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, publication := range publications {
		if err := s.Delete(ctx, publication.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PublicationService) deleteImages(ctx context.Context, p *models.Publication) error {
	if err := s.images.Delete(ctx, p.FrontImage.ObjectKey); err != nil {
		return apperr.Wrap(apperr.DependencyFailure, "failed to delete front image", err)
	}
	if err := s.images.Delete(ctx, p.BackImage.ObjectKey); err != nil {
		return apperr.Wrap(apperr.DependencyFailure, "failed to delete back image", err)
	}
	return nil
}

func imageKey(publicationID, side string) string {
	return fmt.Sprintf("publications/%s/%s.jpg", publicationID, side)
}

func contentTypeOrDefault(contentType string) string {
	if contentType == "" {
		return "image/jpeg"
	}
	return contentType
}
