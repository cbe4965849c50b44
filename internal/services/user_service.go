// ===============================
// FILE: internal/services/user_service.go
// ===============================

package services

import (
	"campusmart/internal/models"
	"campusmart/internal/repositories"
	"context"

	"go.uber.org/zap"
)

// userService implements UserService
type userService struct {
	userRepo    repositories.UserRepository
	listingRepo repositories.ListingRepository
	logger      *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	listingRepo repositories.ListingRepository,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		listingRepo: listingRepo,
		logger:      logger,
	}
}

// GetProfile returns a user's profile
func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to get user", err)
	}
	if user == nil {
		return nil, EntityNotFoundError("user", userID)
	}
	return user.PublicProfile(), nil
}

// UpdateProfile updates the caller's editable profile fields
func (s *userService) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*models.User, error) {
	if err := models.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid profile update", err)
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, NewInternalError("failed to get user", err)
	}
	if user == nil {
		return nil, EntityNotFoundError("user", req.UserID)
	}

	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Skills != nil {
		user.Skills = models.StringArray(req.Skills)
	}
	if req.Interests != nil {
		user.Interests = models.StringArray(req.Interests)
	}
	if req.CourseTitle != nil {
		user.CourseTitle = req.CourseTitle
	}
	if req.Title != nil {
		user.Title = req.Title
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, NewInternalError("failed to update profile", err)
	}

	s.logger.Info("Profile updated", zap.Int64("user_id", user.ID))
	return user.PublicProfile(), nil
}

// ToggleItemLike flips the caller's like on a listing. Liking twice
// returns to the unliked state.
func (s *userService) ToggleItemLike(ctx context.Context, userID, itemID int64) (*LikeResult, error) {
	listing, err := s.listingRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, NewInternalError("failed to get listing", err)
	}
	if listing == nil {
		return nil, EntityNotFoundError("listing", itemID)
	}

	liked, likesCount, err := s.userRepo.ToggleItemLike(ctx, userID, itemID)
	if err != nil {
		return nil, NewInternalError("failed to toggle like", err)
	}

	return &LikeResult{Liked: liked, LikesCount: likesCount}, nil
}

// GetLikedItems pages the listings the user has liked, most recently
// liked first
func (s *userService) GetLikedItems(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	result, err := s.userRepo.GetLikedItems(ctx, userID, params)
	if err != nil {
		return nil, NewInternalError("failed to get liked items", err)
	}
	return result, nil
}

// GetUserStats aggregates the user's selling activity
func (s *userService) GetUserStats(ctx context.Context, userID int64) (*models.UserListingStats, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to get user", err)
	}
	if user == nil {
		return nil, EntityNotFoundError("user", userID)
	}

	stats, err := s.listingRepo.GetUserStats(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to get user stats", err)
	}
	return stats, nil
}
