// file: internal/repositories/collection.go
package repositories

import (
	"campusmart/internal/database"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Collection holds all repository instances for dependency injection
type Collection struct {
	User    UserRepository
	Listing ListingRepository
	Offer   OfferRepository
	Comment CommentRepository
	Message MessageRepository

	// Database and logger for custom operations
	db     *database.Manager
	logger *zap.Logger
}

// NewCollection creates a new repository collection with all dependencies
func NewCollection(db *database.Manager, logger *zap.Logger) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}

	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	collection := &Collection{
		db:     db,
		logger: logger,
	}

	collection.User = NewUserRepository(db, logger)
	collection.Listing = NewListingRepository(db, logger)
	collection.Offer = NewOfferRepository(db, logger)
	collection.Comment = NewCommentRepository(db, logger)
	collection.Message = NewMessageRepository(db, logger)

	logger.Info("Repository collection initialized successfully")

	return collection, nil
}

// ===============================
// HEALTH AND MONITORING
// ===============================

// HealthCheck performs health checks on the data layer
func (c *Collection) HealthCheck(ctx context.Context) map[string]interface{} {
	health := make(map[string]interface{})

	dbHealth := c.db.Health(ctx)
	health["database"] = map[string]interface{}{
		"status":        dbHealth.Status,
		"response_time": dbHealth.ResponseTime,
		"errors":        dbHealth.Errors,
	}

	metrics := c.db.Metrics()
	health["performance"] = map[string]interface{}{
		"query_count":        metrics.QueryCount,
		"error_count":        metrics.ErrorCount,
		"slow_query_count":   metrics.SlowQueryCount,
		"avg_query_duration": metrics.AvgQueryDuration,
	}

	return health
}

// Close releases database resources held by the collection
func (c *Collection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
