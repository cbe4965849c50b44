// ===============================
// FILE: cmd/server/main.go
// ===============================

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusmart/internal/cache"
	"campusmart/internal/config"
	"campusmart/internal/database"
	"campusmart/internal/events"
	"campusmart/internal/middleware"
	"campusmart/internal/repositories"
	"campusmart/internal/response"
	"campusmart/internal/router"
	"campusmart/internal/services"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := initLogger(&cfg.Logging, cfg.Server.Environment)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting campusmart server",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Database, pooled connection plus migrations
	if err := database.InitDB(cfg, logger); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	dbManager := database.GetDB()
	if dbManager == nil {
		logger.Fatal("Database connection is not initialized")
	}
	defer database.Close()

	healthCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	healthStatus := dbManager.Health(healthCtx)
	cancel()
	if healthStatus.Status != database.StatusHealthy {
		logger.Fatal("Database is not healthy",
			zap.String("status", healthStatus.Status),
			zap.Strings("errors", healthStatus.Errors),
		)
	}

	// Cache provider, in-memory by default with Redis opt-in
	cacheInstance, err := cache.NewCache(buildCacheConfig(&cfg.Cache), logger)
	if err != nil {
		logger.Fatal("Failed to create cache", zap.Error(err))
	}
	defer cacheInstance.Close()

	eventBus := events.NewEventBus(events.DefaultEventBusConfig(), logger)
	if err := eventBus.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start event bus", zap.Error(err))
	}
	if err := events.RegisterMarketplaceHandlers(eventBus, logger); err != nil {
		logger.Fatal("Failed to register event handlers", zap.Error(err))
	}

	repos, err := repositories.NewCollection(dbManager, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repositories", zap.Error(err))
	}

	serviceCollection, err := services.NewServiceCollection(repos, cacheInstance, eventBus, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// HTTP plumbing
	responseConfig := response.DefaultConfig()
	responseConfig.PrettyJSON = cfg.Server.Environment != "production"
	responseConfig.IncludeErrorStack = cfg.Server.Environment != "production"
	responseConfig.MaskInternalErrors = cfg.Server.Environment == "production"
	responseBuilder := response.NewBuilder(responseConfig, logger)

	authMiddleware := middleware.NewAuthMiddleware(serviceCollection.Auth, logger)
	rateLimiter := middleware.NewRateLimiter(cacheInstance, &cfg.Security, logger)

	handler := router.SetupRouter(
		serviceCollection,
		dbManager,
		repos,
		authMiddleware,
		rateLimiter,
		responseBuilder,
		cfg,
		logger,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := eventBus.Stop(shutdownCtx); err != nil {
		logger.Warn("Event bus did not stop cleanly", zap.Error(err))
	}

	metrics := database.GetMetrics()
	logger.Info("Final database metrics",
		zap.Int64("query_count", metrics.QueryCount),
		zap.Int64("error_count", metrics.ErrorCount),
		zap.Int64("slow_queries", metrics.SlowQueryCount),
	)

	logger.Info("Server shutdown completed")
}

// buildCacheConfig maps application cache settings onto the cache provider config
func buildCacheConfig(cfg *config.CacheConfig) *cache.Config {
	cacheConfig := cache.DefaultConfig()
	if cfg.Provider != "" {
		cacheConfig.Provider = cfg.Provider
	}
	if cfg.RedisURL != "" {
		cacheConfig.RedisURL = cfg.RedisURL
	}
	cacheConfig.RedisPassword = cfg.RedisPassword
	cacheConfig.RedisDB = cfg.RedisDB
	if cfg.TTL > 0 {
		cacheConfig.TTL = cfg.TTL
	}
	if cfg.MaxKeys > 0 {
		cacheConfig.MaxKeys = cfg.MaxKeys
	}
	return cacheConfig
}

// initLogger builds the structured logger from logging config
func initLogger(cfg *config.LoggingConfig, environment string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if environment == "production" || cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapConfig.Level = level
	}

	return zapConfig.Build()
}
