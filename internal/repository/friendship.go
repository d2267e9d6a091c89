package repository

import (
	"context"
	"fmt"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendshipRepository handles database operations for friendships
type FriendshipRepository struct {
	db *pgxpool.Pool
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db *pgxpool.Pool) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create inserts a friendship. The unique index on the canonical
// (user_a_id, user_b_id) pair rejects a second relation for the same two
// users in any status; that rejection surfaces as a Conflict.
func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, user_a_id, user_b_id, requester_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		f.ID, f.UserAID, f.UserBID, f.RequesterID, f.Status, f.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, "friendship already exists", err)
		}
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// GetByID retrieves a friendship by ID
func (r *FriendshipRepository) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	query := `
		SELECT id, user_a_id, user_b_id, requester_id, status, created_at
		FROM friendships
		WHERE id = $1
	`
	var f models.Friendship
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.UserAID, &f.UserBID, &f.RequesterID, &f.Status, &f.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "friendship not found", err)
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return &f, nil
}

// UpdateStatus sets the status of a friendship
func (r *FriendshipRepository) UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	query := `UPDATE friendships SET status = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update friendship status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "friendship not found")
	}
	return nil
}

// Delete removes a friendship by ID
func (r *FriendshipRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM friendships WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "friendship not found")
	}
	return nil
}

// ListByUser retrieves friendships involving userID with pagination.
// statusFilter narrows to a single status; when empty, the default view is
// accepted relations plus incoming pending requests (pending relations the
// user did not initiate).
func (r *FriendshipRepository) ListByUser(ctx context.Context, userID string, statusFilter models.FriendshipStatus, limit, offset int) ([]*models.Friendship, int, error) {
	where := `
		(user_a_id = $1 OR user_b_id = $1)
		AND (status = 'accepted' OR (status = 'pending' AND requester_id <> $1))
	`
	args := []interface{}{userID}
	if statusFilter != "" {
		where = `(user_a_id = $1 OR user_b_id = $1) AND status = $2`
		args = append(args, statusFilter)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM friendships WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count friendships: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, user_a_id, user_b_id, requester_id, status, created_at
		FROM friendships
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	var friendships []*models.Friendship
	for rows.Next() {
		var f models.Friendship
		err := rows.Scan(
			&f.ID, &f.UserAID, &f.UserBID, &f.RequesterID, &f.Status, &f.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating friendships: %w", err)
	}

	return friendships, total, nil
}

// IsFriend reports whether an accepted friendship exists for the canonical
// pair (userAID, userBID).
func (r *FriendshipRepository) IsFriend(ctx context.Context, userAID, userBID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE user_a_id = $1 AND user_b_id = $2 AND status = 'accepted'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userAID, userBID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// AcceptedFriendIDs returns the other party of every accepted friendship
// involving userID.
func (r *FriendshipRepository) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT user_a_id, user_b_id
		FROM friendships
		WHERE (user_a_id = $1 OR user_b_id = $1) AND status = 'accepted'
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend ids: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var friendIDs []string
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, fmt.Errorf("failed to scan friendship pair: %w", err)
		}
		other := a
		if a == userID {
			other = b
		}
		if other == userID || seen[other] {
			continue
		}
		seen[other] = true
		friendIDs = append(friendIDs, other)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friendships: %w", err)
	}

	return friendIDs, nil
}

// DeleteByUser removes every friendship involving userID.
func (r *FriendshipRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := `DELETE FROM friendships WHERE user_a_id = $1 OR user_b_id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete friendships for user: %w", err)
	}
	return nil
}
