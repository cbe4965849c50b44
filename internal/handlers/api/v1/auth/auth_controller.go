// ===============================
// FILE: internal/handlers/api/v1/auth/auth_controller.go
// ===============================

package auth

import (
	"encoding/json"
	"net/http"

	"campusmart/internal/response"
	"campusmart/internal/services"

	"go.uber.org/zap"
)

// AuthController handles registration and login endpoints
type AuthController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewAuthController creates a new auth controller
func NewAuthController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *AuthController {
	return &AuthController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// Register handles POST /api/v1/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode register request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	authResponse, err := c.serviceCollection.Auth.Register(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "register")
		return
	}

	c.logger.Info("User registered via API",
		zap.Int64("user_id", authResponse.User.ID),
	)

	c.responseBuilder.WriteCreated(w, r, authResponse)
}

// Login handles POST /api/v1/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode login request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	authResponse, err := c.serviceCollection.Auth.Login(ctx, &req)
	if err != nil {
		c.handleServiceError(w, r, err, "login")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, authResponse)
}

// handleServiceError logs a service failure and writes the mapped response
func (c *AuthController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Auth service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
	)
	c.responseBuilder.WriteError(w, r, err)
}
