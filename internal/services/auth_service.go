// ===============================
// FILE: internal/services/auth_service.go
// ===============================

package services

import (
	"campusmart/internal/config"
	"campusmart/internal/events"
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// authService implements AuthService with JWT tokens
type authService struct {
	userRepo repositories.UserRepository
	events   events.EventBus
	logger   *zap.Logger
	config   *config.AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	eventBus events.EventBus,
	logger *zap.Logger,
	cfg *config.AuthConfig,
) AuthService {
	return &authService{
		userRepo: userRepo,
		events:   eventBus,
		logger:   logger,
		config:   cfg,
	}
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Register creates a new account and returns a signed token
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid registration request", err)
	}

	if len(req.Password) < s.config.MinPasswordLength {
		return nil, NewValidationError(
			fmt.Sprintf("password must be at least %d characters", s.config.MinPasswordLength), nil)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BCryptCost)
	if err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, NewConflictError("email already registered", "EMAIL_EXISTS")
		}
		return nil, NewInternalError("failed to create user", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email))

	if s.events != nil {
		_ = s.events.PublishAsync(ctx, events.NewUserRegisteredEvent(user.ID, user.Email))
	}

	return s.issueToken(user)
}

// Login verifies credentials and returns a signed token
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid login request", err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	return s.issueToken(user)
}

// ValidateToken parses and verifies a bearer token
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims := &tokenClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, NewUnauthorizedError("invalid or expired token")
	}

	userID, err := parseSubject(claims.Subject)
	if err != nil {
		return nil, NewUnauthorizedError("invalid token subject")
	}

	return &TokenClaims{UserID: userID, Email: claims.Email}, nil
}

func (s *authService) issueToken(user *models.User) (*AuthResponse, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.JWTExpiry)

	jti, err := uuid.NewV4()
	if err != nil {
		return nil, NewInternalError("failed to generate token id", err)
	}

	claims := &tokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, NewInternalError("failed to sign token", err)
	}

	return &AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user.PublicProfile(),
	}, nil
}

func parseSubject(sub string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(sub, "%d", &id); err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("non-positive subject")
	}
	return id, nil
}
