package services

import (
	"context"
	"strings"
	"time"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/google/uuid"
)

// CommentService handles comments and their reply trees.
type CommentService struct {
	commentStore     CommentStore
	publicationStore PublicationStore
	notifier         Notifier
}

// NewCommentService creates a new comment service
func NewCommentService(commentStore CommentStore, publicationStore PublicationStore, notifier Notifier) *CommentService {
	return &CommentService{
		commentStore:     commentStore,
		publicationStore: publicationStore,
		notifier:         notifier,
	}
}

// Create adds a comment to a publication. A reply's parent must exist and
// belong to the same publication.
func (s *CommentService) Create(ctx context.Context, userID, publicationID, content string, parentID *string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.New(apperr.InvalidArgument, "content is required")
	}

	publication, err := s.publicationStore.GetByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.commentStore.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PublicationID != publicationID {
			return nil, apperr.New(apperr.InvalidArgument, "parent comment belongs to a different publication")
		}
	}

	now := time.Now()
	comment := &models.Comment{
		ID:            uuid.New().String(),
		PublicationID: publicationID,
		UserID:        userID,
		Content:       content,
		ParentID:      parentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.commentStore.Create(ctx, comment); err != nil {
		return nil, err
	}

	if publication.UserID != userID {
		s.notifier.Notify([]string{publication.UserID}, WSMessage{
			Type: "comment_created",
			Data: map[string]interface{}{
				"publication_id": publicationID,
				"comment_id":     comment.ID,
				"user_id":        userID,
			},
		})
	}

	return comment, nil
}

// ListByPublication returns all comments on a publication, oldest first.
func (s *CommentService) ListByPublication(ctx context.Context, publicationID string) ([]*models.Comment, error) {
	if _, err := s.publicationStore.GetByID(ctx, publicationID); err != nil {
		return nil, err
	}
	return s.commentStore.ListByPublication(ctx, publicationID)
}

// Delete removes a comment and, recursively, every reply under it. Only the
// comment's author or an administrator may delete it.
func (s *CommentService) Delete(ctx context.Context, commentID, actorID string, role models.Role) error {
	comment, err := s.commentStore.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actorID && role != models.RoleAdmin {
		return apperr.New(apperr.Forbidden, "you are not authorized to delete this comment")
	}
	return s.deleteWithReplies(ctx, commentID)
}

func (s *CommentService) deleteWithReplies(ctx context.Context, commentID string) error {
	replies, err := s.commentStore.ListByParent(ctx, commentID)
	if err != nil {
		return err
	}
	for _, reply := range replies {
		if err := s.deleteWithReplies(ctx, reply.ID); err != nil {
			return err
		}
	}
	return s.commentStore.Delete(ctx, commentID)
}

// DeleteAllForUser removes every comment authored by userID, including
// replies hanging off each of them. Part of the user-deletion cascade.
func (s *CommentService) DeleteAllForUser(ctx context.Context, userID string) error {
	comments, err := s.commentStore.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, comment := range comments {
		if err := s.deleteWithReplies(ctx, comment.ID); err != nil {
			// A reply of an earlier comment may already be gone.
			if apperr.IsKind(err, apperr.NotFound) {
				continue
			}
			return err
		}
	}
	return nil
}
