// file: internal/middleware/auth_test.go
package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusmart/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAuthService accepts exactly one token and rejects the rest.
type mockAuthService struct {
	validToken string
	claims     *services.TokenClaims
}

func (m *mockAuthService) Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResponse, error) {
	return nil, services.NewInternalError("not implemented", nil)
}

func (m *mockAuthService) Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	return nil, services.NewInternalError("not implemented", nil)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*services.TokenClaims, error) {
	if token == m.validToken {
		return m.claims, nil
	}
	return nil, services.NewUnauthorizedError("invalid or expired token")
}

func newTestAuthMiddleware(t *testing.T) *AuthMiddleware {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return NewAuthMiddleware(&mockAuthService{
		validToken: "good-token",
		claims:     &services.TokenClaims{UserID: 7, Email: "alice@campus.edu"},
	}, logger)
}

func authCaptureHandler(captured **AuthContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	var captured *AuthContext
	handler := newTestAuthMiddleware(t).RequireAuth()(authCaptureHandler(&captured))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Bearer realm="api"`, rec.Header().Get("WWW-Authenticate"))
	assert.Nil(t, captured)
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	var captured *AuthContext
	handler := newTestAuthMiddleware(t).RequireAuth()(authCaptureHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
	req.Header.Set("Authorization", "Bearer forged-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestRequireAuthInjectsPrincipal(t *testing.T) {
	var captured *AuthContext
	handler := newTestAuthMiddleware(t).RequireAuth()(authCaptureHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, int64(7), captured.UserID)
	assert.Equal(t, "alice@campus.edu", captured.Email)
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	var captured *AuthContext
	handler := newTestAuthMiddleware(t).OptionalAuth()(authCaptureHandler(&captured))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/listings/1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured, "anonymous requests carry no principal")
}

func TestOptionalAuthStillResolvesValidToken(t *testing.T) {
	var captured *AuthContext
	handler := newTestAuthMiddleware(t).OptionalAuth()(authCaptureHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/1", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, int64(7), captured.UserID)
}

func TestOptionalAuthIgnoresBadToken(t *testing.T) {
	var captured *AuthContext
	handler := newTestAuthMiddleware(t).OptionalAuth()(authCaptureHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/1", nil)
	req.Header.Set("Authorization", "Bearer forged-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured, "a bad token downgrades to anonymous")
}

func TestExtractBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, extractBearerToken(req))

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, extractBearerToken(req))

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", extractBearerToken(req))

	req.Header.Set("Authorization", "bearer lower.case.scheme")
	assert.Equal(t, "lower.case.scheme", extractBearerToken(req))
}
