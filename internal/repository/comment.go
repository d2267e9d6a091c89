package repository

import (
	"context"
	"fmt"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles database operations for comments
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (id, publication_id, user_id, content, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.PublicationID, c.UserID, c.Content, c.ParentID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `
		SELECT id, publication_id, user_id, content, parent_id, created_at, updated_at
		FROM comments
		WHERE id = $1
	`
	var c models.Comment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.PublicationID, &c.UserID, &c.Content, &c.ParentID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "comment not found", err)
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListByPublication retrieves all comments on a publication, oldest first.
func (r *CommentRepository) ListByPublication(ctx context.Context, publicationID string) ([]*models.Comment, error) {
	query := `
		SELECT id, publication_id, user_id, content, parent_id, created_at, updated_at
		FROM comments
		WHERE publication_id = $1
		ORDER BY created_at ASC
	`
	return r.queryComments(ctx, query, publicationID)
}

// ListByParent retrieves the direct replies to a comment.
func (r *CommentRepository) ListByParent(ctx context.Context, parentID string) ([]*models.Comment, error) {
	query := `
		SELECT id, publication_id, user_id, content, parent_id, created_at, updated_at
		FROM comments
		WHERE parent_id = $1
		ORDER BY created_at ASC
	`
	return r.queryComments(ctx, query, parentID)
}

// ListByUser retrieves every comment authored by userID.
func (r *CommentRepository) ListByUser(ctx context.Context, userID string) ([]*models.Comment, error) {
	query := `
		SELECT id, publication_id, user_id, content, parent_id, created_at, updated_at
		FROM comments
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	return r.queryComments(ctx, query, userID)
}

func (r *CommentRepository) queryComments(ctx context.Context, query string, arg interface{}) ([]*models.Comment, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		err := rows.Scan(
			&c.ID, &c.PublicationID, &c.UserID, &c.Content, &c.ParentID, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// Delete deletes a comment by ID
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM comments WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "comment not found")
	}
	return nil
}

// DeleteByPublication removes every comment on a publication.
func (r *CommentRepository) DeleteByPublication(ctx context.Context, publicationID string) error {
	query := `DELETE FROM comments WHERE publication_id = $1`
	if _, err := r.db.Exec(ctx, query, publicationID); err != nil {
		return fmt.Errorf("failed to delete comments for publication: %w", err)
	}
	return nil
}
