// ===============================
// FILE: internal/services/service_collection.go
// ===============================

package services

import (
	"campusmart/internal/cache"
	"campusmart/internal/config"
	"campusmart/internal/events"
	"campusmart/internal/repositories"
	"fmt"

	"go.uber.org/zap"
)

// ServiceCollection holds all business logic services
type ServiceCollection struct {
	Auth    AuthService
	User    UserService
	Listing ListingService
	Offer   OfferService
	Comment CommentService
	Message MessageService

	logger *zap.Logger
}

// NewServiceCollection wires the service layer over the repository
// collection, cache and event bus.
func NewServiceCollection(
	repos *repositories.Collection,
	cacheProvider cache.Cache,
	eventBus events.EventBus,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if repos == nil {
		return nil, fmt.Errorf("repository collection is required")
	}
	if cacheProvider == nil {
		return nil, fmt.Errorf("cache provider is required")
	}
	if eventBus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ServiceCollection{
		Auth:    NewAuthService(repos.User, eventBus, logger, &cfg.Auth),
		User:    NewUserService(repos.User, repos.Listing, logger),
		Listing: NewListingService(repos.Listing, repos.User, repos.Offer, repos.Comment, repos.Message, cacheProvider, eventBus, logger),
		Offer:   NewOfferService(repos.Offer, repos.Listing, repos.User, eventBus, logger),
		Comment: NewCommentService(repos.Comment, repos.Listing, repos.User, eventBus, logger),
		Message: NewMessageService(repos.Message, repos.User, eventBus, logger),

		logger: logger,
	}, nil
}
