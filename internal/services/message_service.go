// ===============================
// FILE: internal/services/message_service.go
// ===============================

package services

import (
	"campusmart/internal/events"
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BuildConversationID derives the canonical conversation key for a
// user pair. The smaller id always comes first, so both participants
// compute the same key.
func BuildConversationID(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// messageService implements MessageService
type messageService struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	events      events.EventBus
	logger      *zap.Logger
}

// NewMessageService creates a new message service
func NewMessageService(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	eventBus events.EventBus,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		events:      eventBus,
		logger:      logger,
	}
}

// SendMessage creates a message in the sender/receiver conversation.
// Sender and receiver names are snapshotted onto the row.
func (s *messageService) SendMessage(ctx context.Context, req *SendMessageRequest) (*models.Message, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid message", err)
	}
	if req.SenderID == req.ReceiverID {
		return nil, NewBusinessError("cannot message yourself", "SELF_MESSAGE")
	}

	summaries, err := s.userRepo.GetSummaries(ctx, []int64{req.SenderID, req.ReceiverID})
	if err != nil {
		return nil, NewInternalError("failed to get participants", err)
	}
	sender, receiver := summaries[req.SenderID], summaries[req.ReceiverID]
	if sender == nil {
		return nil, EntityNotFoundError("user", req.SenderID)
	}
	if receiver == nil {
		return nil, EntityNotFoundError("user", req.ReceiverID)
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	message := &models.Message{
		ConversationID: BuildConversationID(req.SenderID, req.ReceiverID),
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
		SenderName:     sender.Name,
		ReceiverName:   receiver.Name,
		Content:        req.Content,
		MessageType:    messageType,
		Attachments:    req.Attachments,
		RelatedItemID:  req.RelatedItemID,
		RelatedOfferID: req.RelatedOfferID,
		ReplyTo:        req.ReplyTo,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, NewInternalError("failed to send message", err)
	}

	_ = s.events.PublishAsync(ctx, events.NewMessageSentEvent(
		message.ID, message.ConversationID, message.SenderID, message.ReceiverID, message.RelatedItemID))

	s.logger.Info("Message sent",
		zap.Int64("message_id", message.ID),
		zap.String("conversation_id", message.ConversationID))

	return message, nil
}

// GetConversation pages the message history between the caller and
// another user, oldest first within the page. Opening a conversation
// marks every message addressed to the caller as read.
func (s *messageService) GetConversation(ctx context.Context, req *GetConversationRequest) ([]*models.Message, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid conversation query", err)
	}

	other, err := s.userRepo.GetByID(ctx, req.OtherUserID)
	if err != nil {
		return nil, NewInternalError("failed to get user", err)
	}
	if other == nil {
		return nil, EntityNotFoundError("user", req.OtherUserID)
	}

	conversationID := BuildConversationID(req.UserID, req.OtherUserID)

	messages, err := s.messageRepo.GetConversation(ctx, conversationID, req.Pagination)
	if err != nil {
		return nil, NewInternalError("failed to get conversation", err)
	}

	// Reading the conversation is what marks it read.
	marked, err := s.messageRepo.MarkConversationRead(ctx, conversationID, req.UserID)
	if err != nil {
		s.logger.Warn("Failed to mark conversation read",
			zap.String("conversation_id", conversationID), zap.Error(err))
	} else if marked > 0 {
		for _, m := range messages {
			if m.ReceiverID == req.UserID {
				m.IsRead = true
			}
		}
	}

	// The repository pages newest-first; flip for display order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListConversations returns the caller's conversations, most recent
// activity first, with unread counts recomputed per request.
func (s *messageService) ListConversations(ctx context.Context, userID int64, params models.PaginationParams) ([]*models.Conversation, error) {
	conversations, err := s.messageRepo.ListConversations(ctx, userID, params)
	if err != nil {
		return nil, NewInternalError("failed to list conversations", err)
	}

	// Resolve the other participant of each conversation.
	otherIDs := make([]int64, 0, len(conversations))
	for _, c := range conversations {
		if c.LastMessage == nil {
			continue
		}
		other := c.LastMessage.SenderID
		if other == userID {
			other = c.LastMessage.ReceiverID
		}
		otherIDs = append(otherIDs, other)
	}
	if len(otherIDs) > 0 {
		summaries, err := s.userRepo.GetSummaries(ctx, otherIDs)
		if err != nil {
			s.logger.Warn("Failed to load participant summaries", zap.Error(err))
		} else {
			for _, c := range conversations {
				if c.LastMessage == nil {
					continue
				}
				other := c.LastMessage.SenderID
				if other == userID {
					other = c.LastMessage.ReceiverID
				}
				c.OtherUser = summaries[other]
			}
		}
	}
	return conversations, nil
}

// MarkMessageRead marks a single message read. Receiver only;
// re-marking is a no-op.
func (s *messageService) MarkMessageRead(ctx context.Context, messageID, userID int64) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return NewInternalError("failed to get message", err)
	}
	if message == nil || message.IsDeleted {
		return EntityNotFoundError("message", messageID)
	}
	if message.ReceiverID != userID {
		return NewForbiddenError("only the receiver can mark this message read")
	}

	if err := s.messageRepo.MarkRead(ctx, messageID); err != nil {
		return NewInternalError("failed to mark message read", err)
	}
	return nil
}

// MarkMessageDelivered records receiver-side delivery. Receiver only;
// re-marking is a no-op.
func (s *messageService) MarkMessageDelivered(ctx context.Context, messageID, userID int64) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return NewInternalError("failed to get message", err)
	}
	if message == nil || message.IsDeleted {
		return EntityNotFoundError("message", messageID)
	}
	if message.ReceiverID != userID {
		return NewForbiddenError("only the receiver can mark this message delivered")
	}

	if err := s.messageRepo.MarkDelivered(ctx, messageID); err != nil {
		return NewInternalError("failed to mark message delivered", err)
	}
	return nil
}

// EditMessage replaces a message's content. The first edit captures
// the original content; later edits keep it. Sender only.
func (s *messageService) EditMessage(ctx context.Context, req *EditMessageRequest) (*models.Message, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid edit", err)
	}

	message, err := s.messageRepo.GetByID(ctx, req.MessageID)
	if err != nil {
		return nil, NewInternalError("failed to get message", err)
	}
	if message == nil || message.IsDeleted {
		return nil, EntityNotFoundError("message", req.MessageID)
	}
	if message.SenderID != req.UserID {
		return nil, NewForbiddenError("only the sender can edit this message")
	}

	if err := s.messageRepo.Edit(ctx, req.MessageID, req.Content); err != nil {
		return nil, NewInternalError("failed to edit message", err)
	}

	updated, err := s.messageRepo.GetByID(ctx, req.MessageID)
	if err != nil {
		return nil, NewInternalError("failed to reload message", err)
	}
	return updated, nil
}

// DeleteMessage soft-deletes a message. Sender only.
func (s *messageService) DeleteMessage(ctx context.Context, messageID, userID int64) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return NewInternalError("failed to get message", err)
	}
	if message == nil || message.IsDeleted {
		return EntityNotFoundError("message", messageID)
	}
	if message.SenderID != userID {
		return NewForbiddenError("only the sender can delete this message")
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID, userID); err != nil {
		return NewInternalError("failed to delete message", err)
	}
	return nil
}

// GetUnreadCount returns the caller's total unread message count.
func (s *messageService) GetUnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := s.messageRepo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, NewInternalError("failed to get unread count", err)
	}
	return count, nil
}
