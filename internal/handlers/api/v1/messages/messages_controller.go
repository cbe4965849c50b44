// ===============================
// FILE: internal/handlers/api/v1/messages/messages_controller.go
// ===============================

package messages

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"campusmart/internal/middleware"
	"campusmart/internal/response"
	"campusmart/internal/services"

	"go.uber.org/zap"
)

// MessageController handles direct messaging API endpoints
type MessageController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewMessageController creates a new message controller
func NewMessageController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *MessageController {
	return &MessageController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// SendMessage handles POST /api/v1/messages
func (c *MessageController) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	var req services.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode send message request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.SenderID = authCtx.UserID

	message, err := c.serviceCollection.Message.SendMessage(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "send message")
		return
	}

	c.logger.Info("Message sent via API",
		zap.Int64("message_id", message.ID),
		zap.String("conversation_id", message.ConversationID),
		zap.Int64("sender_id", authCtx.UserID),
	)

	c.responseBuilder.WriteCreated(w, r, message)
}

// GetConversation handles GET /api/v1/messages/conversations/{userId}
func (c *MessageController) GetConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	otherUserID, err := c.extractIDFromPath(r.URL.Path, 4)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid user ID", err))
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		response.WriteInvalidPagination(w, r, err)
		return
	}

	req := &services.GetConversationRequest{
		UserID:      authCtx.UserID,
		OtherUserID: otherUserID,
		Pagination:  params.ToModelParams(),
	}

	messages, err := c.serviceCollection.Message.GetConversation(ctx, req)
	if err != nil {
		c.handleServiceError(w, r, err, "get conversation")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, messages)
}

// ListConversations handles GET /api/v1/messages/conversations
func (c *MessageController) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		response.WriteInvalidPagination(w, r, err)
		return
	}

	conversations, err := c.serviceCollection.Message.ListConversations(ctx, authCtx.UserID, params.ToModelParams())
	if err != nil {
		c.handleServiceError(w, r, err, "list conversations")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, conversations)
}

// MarkRead handles POST /api/v1/messages/{id}/read
func (c *MessageController) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	messageID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid message ID", err))
		return
	}

	if err := c.serviceCollection.Message.MarkMessageRead(ctx, messageID, authCtx.UserID); err != nil {
		c.handleServiceError(w, r, err, "mark message read")
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// MarkDelivered handles POST /api/v1/messages/{id}/delivered
func (c *MessageController) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	messageID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid message ID", err))
		return
	}

	if err := c.serviceCollection.Message.MarkMessageDelivered(ctx, messageID, authCtx.UserID); err != nil {
		c.handleServiceError(w, r, err, "mark message delivered")
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// EditMessage handles PUT /api/v1/messages/{id}
func (c *MessageController) EditMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	messageID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid message ID", err))
		return
	}

	var req services.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode edit message request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.MessageID = messageID
	req.UserID = authCtx.UserID

	message, err := c.serviceCollection.Message.EditMessage(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "edit message")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, message)
}

// DeleteMessage handles DELETE /api/v1/messages/{id}
func (c *MessageController) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	messageID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid message ID", err))
		return
	}

	if err := c.serviceCollection.Message.DeleteMessage(ctx, messageID, authCtx.UserID); err != nil {
		c.handleServiceError(w, r, err, "delete message")
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// GetUnreadCount handles GET /api/v1/messages/unread-count
func (c *MessageController) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	count, err := c.serviceCollection.Message.GetUnreadCount(ctx, authCtx.UserID)
	if err != nil {
		c.handleServiceError(w, r, err, "get unread count")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, map[string]int64{"unreadCount": count})
}

// handleServiceError logs a service failure and writes the mapped response
func (c *MessageController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Message service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
	c.responseBuilder.WriteError(w, r, err)
}

// extractIDFromPath extracts an ID from URL path at the given position
func (c *MessageController) extractIDFromPath(path string, position int) (int64, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) <= position {
		return 0, fmt.Errorf("missing ID in path")
	}

	id, err := strconv.ParseInt(parts[position], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID format")
	}

	return id, nil
}
