// file: internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"campusmart/internal/contextutils"
	"campusmart/internal/services"

	"go.uber.org/zap"
)

const (
	// AuthContextKey is the context key for the authenticated principal
	AuthContextKey ContextKey = "auth_context"
)

// AuthContext holds the authenticated principal for a request
type AuthContext struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// AuthMiddleware authenticates requests with bearer tokens
type AuthMiddleware struct {
	authService services.AuthService
	logger      *zap.Logger
}

// NewAuthMiddleware creates authentication middleware backed by the
// auth service's token validation.
func NewAuthMiddleware(authService services.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// Authenticate validates the bearer token and injects the auth
// context. With required set, requests without a valid token get a
// 401; otherwise they pass through anonymously.
func (am *AuthMiddleware) Authenticate(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := extractBearerToken(r)
			if token == "" {
				if required {
					writeAuthError(w, "authentication required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := am.authService.ValidateToken(ctx, token)
			if err != nil {
				GetRequestLogger(ctx).Warn("Token validation failed",
					zap.String("remote_addr", getClientIP(r)),
					zap.Error(err))
				if required {
					writeAuthError(w, "invalid or expired token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			authCtx := &AuthContext{
				UserID: claims.UserID,
				Email:  claims.Email,
			}
			ctx = context.WithValue(ctx, AuthContextKey, authCtx)
			ctx = contextutils.WithUserID(ctx, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth is shorthand for Authenticate(true)
func (am *AuthMiddleware) RequireAuth() func(http.Handler) http.Handler {
	return am.Authenticate(true)
}

// OptionalAuth is shorthand for Authenticate(false)
func (am *AuthMiddleware) OptionalAuth() func(http.Handler) http.Handler {
	return am.Authenticate(false)
}

// GetAuthContext extracts the authenticated principal, nil when the
// request is anonymous.
func GetAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext); ok {
		return authCtx
	}
	return nil
}

// extractBearerToken pulls the token out of the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeAuthError writes a 401 without depending on the response
// builder, which sits above this middleware in the chain.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":{"type":"UNAUTHORIZED","message":"` + message + `"}}`))
}
