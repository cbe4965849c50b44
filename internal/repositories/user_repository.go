// file: internal/repositories/user_repository.go
package repositories

import (
	"campusmart/internal/database"
	"campusmart/internal/models"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// userRepository implements UserRepository
type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const userColumns = `
	id, name, email, password_hash, bio, skills, interests,
	course_title, title, profile_picture, verified, created_at, updated_at`

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, bio, skills, interests, course_title, title, profile_picture, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Bio,
		user.Skills, user.Interests, user.CourseTitle, user.Title,
		user.ProfilePicture, user.Verified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id, (nil, nil) when absent
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email, (nil, nil) when absent
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.scanUser(r.QueryRowContext(ctx, query, email))
}

// UpdateProfile updates the mutable profile fields only
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET bio = $2, skills = $3, interests = $4, course_title = $5, title = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		user.ID, user.Bio, user.Skills, user.Interests, user.CourseTitle, user.Title,
	).Scan(&user.UpdatedAt)
	if r.IsNotFound(err) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// GetSummary returns the embedded slice of a user
func (r *userRepository) GetSummary(ctx context.Context, id int64) (*models.UserSummary, error) {
	query := `SELECT id, name, email, profile_picture, verified FROM users WHERE id = $1`
	s := &models.UserSummary{}
	err := r.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Email, &s.ProfilePicture, &s.Verified)
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user summary: %w", err)
	}
	return s, nil
}

// GetSummaries batch-loads user summaries keyed by id
func (r *userRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]*models.UserSummary, error) {
	out := make(map[int64]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT id, name, email, profile_picture, verified FROM users WHERE id = ANY($1)`
	rows, err := r.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &models.UserSummary{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.ProfilePicture, &s.Verified); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

// ToggleItemLike flips the (user, item) like row. The delete-or-insert
// and the counter adjustment run in one transaction so likes_count
// cannot drift from the relation rows.
func (r *userRepository) ToggleItemLike(ctx context.Context, userID, itemID int64) (bool, int, error) {
	var liked bool
	var count int

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM item_likes WHERE user_id = $1 AND item_id = $2`, userID, itemID)
		if err != nil {
			return err
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if removed > 0 {
			liked = false
			return tx.QueryRowContext(ctx,
				`UPDATE listings SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1 RETURNING likes_count`,
				itemID).Scan(&count)
		}

		// ON CONFLICT keeps a concurrent duplicate toggle harmless; only
		// an insert that actually landed may bump the counter.
		res, err = tx.ExecContext(ctx,
			`INSERT INTO item_likes (user_id, item_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, itemID)
		if err != nil {
			return err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		liked = true
		if inserted == 0 {
			return tx.QueryRowContext(ctx,
				`SELECT likes_count FROM listings WHERE id = $1`, itemID).Scan(&count)
		}
		return tx.QueryRowContext(ctx,
			`UPDATE listings SET likes_count = likes_count + 1 WHERE id = $1 RETURNING likes_count`,
			itemID).Scan(&count)
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle item like: %w", err)
	}
	return liked, count, nil
}

// IsItemLiked reports whether the user currently likes the item
func (r *userRepository) IsItemLiked(ctx context.Context, userID, itemID int64) (bool, error) {
	var exists bool
	err := r.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM item_likes WHERE user_id = $1 AND item_id = $2)`,
		userID, itemID).Scan(&exists)
	return exists, err
}

// GetLikedItemIDs returns which of the given items the user likes
func (r *userRepository) GetLikedItemIDs(ctx context.Context, userID int64, itemIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	rows, err := r.QueryContext(ctx,
		`SELECT item_id FROM item_likes WHERE user_id = $1 AND item_id = ANY($2)`,
		userID, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load liked item ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// GetLikedItems pages through the listings a user has liked, most
// recently liked first.
func (r *userRepository) GetLikedItems(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	base := `
		SELECT ` + strings.TrimSpace(listingColumns) + `, il.liked_at
		FROM item_likes il
		JOIN listings l ON l.id = il.item_id
		WHERE il.user_id = $1
		ORDER BY il.liked_at DESC`

	args := []interface{}{userID}
	query, args := r.AppendPagination(base, args, params)

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get liked items: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		listing, err := scanListingRow(rows, true)
		if err != nil {
			return nil, err
		}
		listing.IsLiked = true
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total, err := r.GetTotalCount(ctx,
		`SELECT COUNT(*) FROM item_likes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedResponse[*models.Listing]{
		Data:       listings,
		Pagination: models.NewPaginationMeta(params, total),
	}, nil
}

// scanUser scans a full user row, translating no-rows to (nil, nil)
func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Bio,
		&u.Skills, &u.Interests, &u.CourseTitle, &u.Title,
		&u.ProfilePicture, &u.Verified, &u.CreatedAt, &u.UpdatedAt,
	)
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}
