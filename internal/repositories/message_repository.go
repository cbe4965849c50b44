// file: internal/repositories/message_repository.go
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

// messageRepository implements MessageRepository
type messageRepository struct {
	*BaseRepository
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.Manager, logger *zap.Logger) MessageRepository {
	return &messageRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const messageColumns = `
	m.id, m.conversation_id, m.sender_id, m.receiver_id, m.sender_name, m.receiver_name,
	m.content, m.message_type, m.related_item_id, m.related_offer_id, m.reply_to,
	m.is_read, m.read_at, m.is_delivered, m.delivered_at,
	m.is_edited, m.edited_at, m.original_content,
	m.is_deleted, m.deleted_at, m.deleted_by, m.created_at`

func scanMessage(row rowScanner) (*models.Message, error) {
	m := &models.Message{}
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.SenderName, &m.ReceiverName,
		&m.Content, &m.MessageType, &m.RelatedItemID, &m.RelatedOfferID, &m.ReplyTo,
		&m.IsRead, &m.ReadAt, &m.IsDelivered, &m.DeliveredAt,
		&m.IsEdited, &m.EditedAt, &m.OriginalContent,
		&m.IsDeleted, &m.DeletedAt, &m.DeletedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create inserts the message with its attachments in one transaction
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO messages (
				conversation_id, sender_id, receiver_id, sender_name, receiver_name,
				content, message_type, related_item_id, related_offer_id, reply_to
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at`

		err := tx.QueryRowContext(ctx, query,
			message.ConversationID, message.SenderID, message.ReceiverID,
			message.SenderName, message.ReceiverName,
			message.Content, message.MessageType,
			message.RelatedItemID, message.RelatedOfferID, message.ReplyTo,
		).Scan(&message.ID, &message.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		for _, a := range message.Attachments {
			a.MessageID = message.ID
			err := tx.QueryRowContext(ctx,
				`INSERT INTO message_attachments (message_id, kind, url, filename, size, mime_type)
				 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				a.MessageID, a.Kind, a.URL, a.Filename, a.Size, a.MimeType,
			).Scan(&a.ID)
			if err != nil {
				return fmt.Errorf("failed to save attachment: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a message, (nil, nil) when absent
func (r *messageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query := `SELECT` + messageColumns + ` FROM messages m WHERE m.id = $1`
	message, err := scanMessage(r.QueryRowContext(ctx, query, id))
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if err := r.loadAttachments(ctx, []*models.Message{message}); err != nil {
		return nil, err
	}
	return message, nil
}

// GetConversation pages non-deleted messages newest first. The
// service reverses the page for oldest-first display.
func (r *messageRepository) GetConversation(ctx context.Context, conversationID string, params models.PaginationParams) ([]*models.Message, error) {
	query := `SELECT` + messageColumns + `
		FROM messages m
		WHERE m.conversation_id = $1 AND m.is_deleted = FALSE
		ORDER BY m.created_at DESC`

	args := []interface{}{conversationID}
	query, args = r.AppendPagination(query, args, params)

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadAttachments(ctx, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkConversationRead bulk-marks unread messages addressed to the
// receiver in one statement; the read side effect of opening a
// conversation.
func (r *messageRepository) MarkConversationRead(ctx context.Context, conversationID string, receiverID int64) (int64, error) {
	result, err := r.ExecContext(ctx, `
		UPDATE messages
		SET is_read = TRUE, read_at = NOW()
		WHERE conversation_id = $1 AND receiver_id = $2 AND is_read = FALSE AND is_deleted = FALSE`,
		conversationID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return result.RowsAffected()
}

// ListConversations aggregates the user's conversations from the
// messages table on every call: latest message per conversation plus
// an unread count. DISTINCT ON picks the newest row per group.
func (r *messageRepository) ListConversations(ctx context.Context, userID int64, params models.PaginationParams) ([]*models.Conversation, error) {
	query := `
		WITH visible AS (
			SELECT * FROM messages
			WHERE (sender_id = $1 OR receiver_id = $1) AND is_deleted = FALSE
		),
		latest AS (
			SELECT DISTINCT ON (conversation_id) *
			FROM visible
			ORDER BY conversation_id, created_at DESC
		),
		unread AS (
			SELECT conversation_id, COUNT(*) AS unread_count
			FROM visible
			WHERE receiver_id = $1 AND is_read = FALSE
			GROUP BY conversation_id
		)
		SELECT ` + messageColumns + `, COALESCE(u.unread_count, 0)
		FROM latest m
		LEFT JOIN unread u ON u.conversation_id = m.conversation_id
		ORDER BY m.created_at DESC`

	args := []interface{}{userID}
	query, args = r.AppendPagination(query, args, params)

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		m := &models.Message{}
		var unreadCount int
		err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.SenderName, &m.ReceiverName,
			&m.Content, &m.MessageType, &m.RelatedItemID, &m.RelatedOfferID, &m.ReplyTo,
			&m.IsRead, &m.ReadAt, &m.IsDelivered, &m.DeliveredAt,
			&m.IsEdited, &m.EditedAt, &m.OriginalContent,
			&m.IsDeleted, &m.DeletedAt, &m.DeletedBy, &m.CreatedAt,
			&unreadCount,
		)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, &models.Conversation{
			ConversationID: m.ConversationID,
			LastMessage:    m,
			UnreadCount:    unreadCount,
		})
	}
	return conversations, rows.Err()
}

// MarkRead sets the read flag once; repeated calls are no-ops
func (r *messageRepository) MarkRead(ctx context.Context, messageID int64) error {
	_, err := r.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE, read_at = NOW() WHERE id = $1 AND is_read = FALSE`,
		messageID)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// MarkDelivered sets the delivered flag once
func (r *messageRepository) MarkDelivered(ctx context.Context, messageID int64) error {
	_, err := r.ExecContext(ctx,
		`UPDATE messages SET is_delivered = TRUE, delivered_at = NOW() WHERE id = $1 AND is_delivered = FALSE`,
		messageID)
	if err != nil {
		return fmt.Errorf("failed to mark message delivered: %w", err)
	}
	return nil
}

// Edit replaces the content. The first edit preserves the original
// content; later edits keep that first original.
func (r *messageRepository) Edit(ctx context.Context, messageID int64, newContent string) error {
	result, err := r.ExecContext(ctx, `
		UPDATE messages
		SET original_content = COALESCE(original_content, content),
		    content = $2, is_edited = TRUE, edited_at = NOW()
		WHERE id = $1 AND content <> $2`,
		messageID, newContent)
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	// Editing to identical content is a silent no-op.
	_, _ = result.RowsAffected()
	return nil
}

// SoftDelete hides the message from subsequent reads
func (r *messageRepository) SoftDelete(ctx context.Context, messageID, deletedBy int64) error {
	result, err := r.ExecContext(ctx,
		`UPDATE messages SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2 WHERE id = $1 AND is_deleted = FALSE`,
		messageID, deletedBy)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return requireRow(result)
}

// UnreadCount totals unread, non-deleted messages for a user
func (r *messageRepository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = FALSE AND is_deleted = FALSE`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// DeleteByItem hard-deletes all messages referencing an item. Part of
// the listing cascade.
func (r *messageRepository) DeleteByItem(ctx context.Context, itemID int64) error {
	_, err := r.ExecContext(ctx, `DELETE FROM messages WHERE related_item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete messages for item: %w", err)
	}
	return nil
}

// loadAttachments batch-attaches attachments to the given messages
func (r *messageRepository) loadAttachments(ctx context.Context, messages []*models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Message, len(messages))
	ids := make([]int64, 0, len(messages))
	for _, m := range messages {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	rows, err := r.QueryContext(ctx,
		`SELECT id, message_id, kind, url, filename, size, mime_type
		 FROM message_attachments WHERE message_id = ANY($1) ORDER BY id`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a := &models.MessageAttachment{}
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Kind, &a.URL, &a.Filename, &a.Size, &a.MimeType); err != nil {
			return err
		}
		if m := byID[a.MessageID]; m != nil {
			m.Attachments = append(m.Attachments, a)
		}
	}
	return rows.Err()
}
