// ===============================
// FILE: internal/handlers/api/v1/comments/comments_controller.go
// ===============================

package comments

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

// CommentController handles listing comment API endpoints
type CommentController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewCommentController creates a new comment controller
func NewCommentController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *CommentController {
	return &CommentController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// CreateComment handles POST /api/v1/comments
func (c *CommentController) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	var req services.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode create comment request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.UserID = authCtx.UserID

	comment, err := c.serviceCollection.Comment.CreateComment(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "create comment")
		return
	}

	c.logger.Info("Comment created via API",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("item_id", comment.ItemID),
		zap.Int64("user_id", authCtx.UserID),
		zap.Bool("is_reply", comment.ParentCommentID != nil),
	)

	c.responseBuilder.WriteCreated(w, r, comment)
}

// GetCommentsByItem handles GET /api/v1/listings/{id}/comments
func (c *CommentController) GetCommentsByItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)

	itemID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid listing ID", err))
		return
	}

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		response.WriteInvalidPagination(w, r, err)
		return
	}

	req := &services.GetItemCommentsRequest{
		ItemID:     itemID,
		Type:       r.URL.Query().Get("type"),
		Pagination: params.ToModelParams(),
	}
	if authCtx != nil {
		req.ViewerID = &authCtx.UserID
	}

	page, err := c.serviceCollection.Comment.GetCommentsByItem(ctx, req)
	if err != nil {
		c.handleServiceError(w, r, err, "get comments by item")
		return
	}

	c.responseBuilder.WriteModelPage(w, r, page.Data, page.Pagination)
}

// ToggleLike handles POST /api/v1/comments/{id}/like
func (c *CommentController) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	commentID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid comment ID", err))
		return
	}

	result, err := c.serviceCollection.Comment.ToggleCommentLike(ctx, commentID, authCtx.UserID)
	if err != nil {
		c.handleServiceError(w, r, err, "toggle comment like")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// EditComment handles PUT /api/v1/comments/{id}
func (c *CommentController) EditComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	commentID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid comment ID", err))
		return
	}

	var req services.EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode edit comment request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.CommentID = commentID
	req.UserID = authCtx.UserID

	comment, err := c.serviceCollection.Comment.EditComment(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "edit comment")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{id}
func (c *CommentController) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	commentID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid comment ID", err))
		return
	}

	if err := c.serviceCollection.Comment.DeleteComment(ctx, commentID, authCtx.UserID); err != nil {
		c.handleServiceError(w, r, err, "delete comment")
		return
	}

	c.logger.Info("Comment deleted via API",
		zap.Int64("comment_id", commentID),
		zap.Int64("user_id", authCtx.UserID),
	)

	c.responseBuilder.WriteNoContent(w, r)
}

// handleServiceError logs a service failure and writes the mapped response
func (c *CommentController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Comment service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
	c.responseBuilder.WriteError(w, r, err)
}

// extractIDFromPath extracts an ID from URL path at the given position
func (c *CommentController) extractIDFromPath(path string, position int) (int64, error) {
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
