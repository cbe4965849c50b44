// ===============================
// FILE: internal/handlers/api/v1/users/users_controller.go
// ===============================

package users

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

// UserController handles user directory API endpoints
type UserController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewUserController creates a new user controller
func NewUserController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *UserController {
	return &UserController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// GetProfile handles GET /api/v1/users/profile
func (c *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	user, err := c.serviceCollection.User.GetProfile(ctx, authCtx.UserID)
	if err != nil {
		c.handleServiceError(w, r, err, "get profile")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, user)
}

// UpdateProfile handles PUT /api/v1/users/profile
func (c *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := middleware.GetAuthContext(ctx)
	if authCtx == nil {
		c.responseBuilder.WriteUnauthorized(w, r, "Authentication required")
		return
	}

	var req services.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode update profile request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.UserID = authCtx.UserID

	user, err := c.serviceCollection.User.UpdateProfile(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "update profile")
		return
	}

	c.logger.Info("Profile updated via API", zap.Int64("user_id", authCtx.UserID))
	c.responseBuilder.WriteSuccess(w, r, user)
}

// GetLikedItems handles GET /api/v1/users/liked-items
func (c *UserController) GetLikedItems(w http.ResponseWriter, r *http.Request) {
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

	page, err := c.serviceCollection.User.GetLikedItems(ctx, authCtx.UserID, params.ToModelParams())
	if err != nil {
		c.handleServiceError(w, r, err, "get liked items")
		return
	}

	c.responseBuilder.WriteModelPage(w, r, page.Data, page.Pagination)
}

// GetUserByID handles GET /api/v1/users/{id}
func (c *UserController) GetUserByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid user ID", err))
		return
	}

	user, err := c.serviceCollection.User.GetProfile(ctx, userID)
	if err != nil {
		c.handleServiceError(w, r, err, "get user")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, user)
}

// GetUserStats handles GET /api/v1/users/{id}/stats
func (c *UserController) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := c.extractIDFromPath(r.URL.Path, 3)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid user ID", err))
		return
	}

	stats, err := c.serviceCollection.User.GetUserStats(ctx, userID)
	if err != nil {
		c.handleServiceError(w, r, err, "get user stats")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, stats)
}

// handleServiceError logs a service failure and writes the mapped response
func (c *UserController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("User service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
	c.responseBuilder.WriteError(w, r, err)
}

// extractIDFromPath extracts an ID from URL path at the given position
func (c *UserController) extractIDFromPath(path string, position int) (int64, error) {
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
