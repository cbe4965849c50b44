// file: internal/repositories/comment_repository.go
package repositories

import (
	"campusmart/internal/database"
	"campusmart/internal/models"
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// commentRepository implements CommentRepository
type commentRepository struct {
	*BaseRepository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *database.Manager, logger *zap.Logger) CommentRepository {
	return &commentRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const commentColumns = `
	c.id, c.item_id, c.user_id, c.user_name, c.user_email, c.content,
	c.parent_comment_id, c.is_question, c.is_answer, c.is_seller_response,
	c.answered_by, c.likes_count, c.is_edited, c.is_deleted, c.deleted_at,
	c.created_at, c.updated_at`

func scanComment(row rowScanner) (*models.Comment, error) {
	c := &models.Comment{}
	err := row.Scan(
		&c.ID, &c.ItemID, &c.UserID, &c.UserName, &c.UserEmail, &c.Content,
		&c.ParentCommentID, &c.IsQuestion, &c.IsAnswer, &c.IsSellerResponse,
		&c.AnsweredBy, &c.LikesCount, &c.IsEdited, &c.IsDeleted, &c.DeletedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a comment. The derived flags (isSellerResponse,
// isAnswer, answeredBy) are computed by the service before this call.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (
			item_id, user_id, user_name, user_email, content,
			parent_comment_id, is_question, is_answer, is_seller_response, answered_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		comment.ItemID, comment.UserID, comment.UserName, comment.UserEmail,
		comment.Content, comment.ParentCommentID, comment.IsQuestion,
		comment.IsAnswer, comment.IsSellerResponse, comment.AnsweredBy,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment regardless of deletion state, (nil, nil)
// when absent. Callers decide how to treat deleted rows.
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT` + commentColumns + ` FROM comments c WHERE c.id = $1`
	comment, err := scanComment(r.QueryRowContext(ctx, query, id))
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}

// GetTopLevelByItem pages non-deleted top-level comments newest first
func (r *commentRepository) GetTopLevelByItem(ctx context.Context, itemID int64, commentType string, params models.PaginationParams) (*models.PaginatedResponse[*models.Comment], error) {
	where := `WHERE c.item_id = $1 AND c.is_deleted = FALSE AND c.parent_comment_id IS NULL`
	args := []interface{}{itemID}

	switch commentType {
	case "questions":
		where += ` AND c.is_question = TRUE`
	case "comments":
		where += ` AND c.is_question = FALSE`
	}

	query := `SELECT` + commentColumns + ` FROM comments c ` + where + ` ORDER BY c.created_at DESC`
	query, pagedArgs := r.AppendPagination(query, args, params)

	rows, err := r.QueryContext(ctx, query, pagedArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to get item comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM comments c `+where, args...)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedResponse[*models.Comment]{
		Data:       comments,
		Pagination: models.NewPaginationMeta(params, total),
	}, nil
}

// GetReplies batch-loads non-deleted replies keyed by parent, oldest first
func (r *commentRepository) GetReplies(ctx context.Context, parentIDs []int64) (map[int64][]*models.Comment, error) {
	out := make(map[int64][]*models.Comment, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}

	query := `SELECT` + commentColumns + `
		FROM comments c
		WHERE c.parent_comment_id = ANY($1) AND c.is_deleted = FALSE
		ORDER BY c.created_at ASC`

	rows, err := r.QueryContext(ctx, query, pq.Array(parentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		reply, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		if reply.ParentCommentID != nil {
			out[*reply.ParentCommentID] = append(out[*reply.ParentCommentID], reply)
		}
	}
	return out, rows.Err()
}

// ToggleLike flips the (user, comment) like row and keeps likes_count
// equal to the number of rows, all inside one transaction. The user's
// likedComments relation is the same comment_likes table, so a single
// write covers both sides.
func (r *commentRepository) ToggleLike(ctx context.Context, commentID, userID int64) (bool, int, error) {
	var liked bool
	var count int

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM comment_likes WHERE user_id = $1 AND comment_id = $2`, userID, commentID)
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
				`UPDATE comments SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1 RETURNING likes_count`,
				commentID).Scan(&count)
		}

		// Only an insert that actually landed may bump the counter; a
		// concurrent toggle can win the ON CONFLICT race.
		res, err = tx.ExecContext(ctx,
			`INSERT INTO comment_likes (user_id, comment_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, commentID)
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
				`SELECT likes_count FROM comments WHERE id = $1`, commentID).Scan(&count)
		}
		return tx.QueryRowContext(ctx,
			`UPDATE comments SET likes_count = likes_count + 1 WHERE id = $1 RETURNING likes_count`,
			commentID).Scan(&count)
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle comment like: %w", err)
	}
	return liked, count, nil
}

// GetLikedCommentIDs returns which of the given comments the user likes
func (r *commentRepository) GetLikedCommentIDs(ctx context.Context, userID int64, commentIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}

	rows, err := r.QueryContext(ctx,
		`SELECT comment_id FROM comment_likes WHERE user_id = $1 AND comment_id = ANY($2)`,
		userID, pq.Array(commentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load liked comment ids: %w", err)
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

// Edit replaces the content, stashing the prior revision
func (r *commentRepository) Edit(ctx context.Context, commentID int64, newContent string) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var oldContent string
		err := tx.QueryRowContext(ctx,
			`SELECT content FROM comments WHERE id = $1 FOR UPDATE`, commentID).Scan(&oldContent)
		if err != nil {
			return err
		}
		if oldContent == newContent {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO comment_edits (comment_id, content) VALUES ($1, $2)`,
			commentID, oldContent); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE comments SET content = $2, is_edited = TRUE, updated_at = NOW() WHERE id = $1`,
			commentID, newContent)
		return err
	})
}

// SoftDelete hides the comment without removing the row
func (r *commentRepository) SoftDelete(ctx context.Context, commentID int64) error {
	result, err := r.ExecContext(ctx,
		`UPDATE comments SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`,
		commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireRow(result)
}

// DeleteByItem hard-deletes all comments for an item. Part of the
// listing cascade, which does remove rows.
func (r *commentRepository) DeleteByItem(ctx context.Context, itemID int64) error {
	_, err := r.ExecContext(ctx, `DELETE FROM comments WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete comments for item: %w", err)
	}
	return nil
}
