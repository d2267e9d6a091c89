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

// PublicationRepository handles database operations for publications
type PublicationRepository struct {
	db *pgxpool.Pool
}

// NewPublicationRepository creates a new publication repository
func NewPublicationRepository(db *pgxpool.Pool) *PublicationRepository {
	return &PublicationRepository{db: db}
}

const publicationColumns = `
	id, user_id,
	front_url, front_object_key, back_url, back_object_key,
	longitude, latitude, created_at
`

func scanPublication(row pgx.Row) (*models.Publication, error) {
	var p models.Publication
	err := row.Scan(
		&p.ID, &p.UserID,
		&p.FrontImage.URL, &p.FrontImage.ObjectKey,
		&p.BackImage.URL, &p.BackImage.ObjectKey,
		&p.Longitude, &p.Latitude, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a new publication
func (r *PublicationRepository) Create(ctx context.Context, p *models.Publication) error {
	query := `
		INSERT INTO publications (
			id, user_id,
			front_url, front_object_key, back_url, back_object_key,
			longitude, latitude, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.UserID,
		p.FrontImage.URL, p.FrontImage.ObjectKey,
		p.BackImage.URL, p.BackImage.ObjectKey,
		p.Longitude, p.Latitude, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create publication: %w", err)
	}
	return nil
}

// GetByID retrieves a publication by ID
func (r *PublicationRepository) GetByID(ctx context.Context, id string) (*models.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publications WHERE id = $1`
	p, err := scanPublication(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "publication not found", err)
		}
		return nil, fmt.Errorf("failed to get publication: %w", err)
	}
	return p, nil
}

// LatestByUser retrieves the most recent publication by a user, or nil if
// the user has never posted.
func (r *PublicationRepository) LatestByUser(ctx context.Context, userID string) (*models.Publication, error) {
	query := `
		SELECT ` + publicationColumns + `
		FROM publications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	p, err := scanPublication(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest publication: %w", err)
	}
	return p, nil
}

// ListByAuthors retrieves publications by any of the given authors, newest
// first, with pagination. A non-nil after restricts to publications created
// strictly after that instant.
func (r *PublicationRepository) ListByAuthors(ctx context.Context, authorIDs []string, after *time.Time, limit, offset int) ([]*models.Publication, int, error) {
	where := `user_id = ANY($1)`
	args := []interface{}{authorIDs}
	if after != nil {
		where += fmt.Sprintf(` AND created_at > $%d`, len(args)+1)
		args = append(args, *after)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM publications WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count publications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM publications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, publicationColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	return r.queryPublications(ctx, query, args, total)
}

// ListAll retrieves all publications, newest first, with pagination.
func (r *PublicationRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.Publication, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM publications`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count publications: %w", err)
	}

	query := `
		SELECT ` + publicationColumns + `
		FROM publications
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryPublications(ctx, query, []interface{}{limit, offset}, total)
}

// AllByUser retrieves every publication authored by userID, without
// pagination. Used by the user-deletion cascade.
func (r *PublicationRepository) AllByUser(ctx context.Context, userID string) ([]*models.Publication, error) {
	query := `
		SELECT ` + publicationColumns + `
		FROM publications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	publications, _, err := r.queryPublications(ctx, query, []interface{}{userID}, 0)
	return publications, err
}

func (r *PublicationRepository) queryPublications(ctx context.Context, query string, args []interface{}, total int) ([]*models.Publication, int, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list publications: %w", err)
	}
	defer rows.Close()

	var publications []*models.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan publication: %w", err)
		}
		publications = append(publications, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating publications: %w", err)
	}

	return publications, total, nil
}

// Delete deletes a publication by ID
func (r *PublicationRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM publications WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete publication: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "publication not found")
	}
	return nil
}
