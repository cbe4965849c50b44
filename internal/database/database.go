package database

import (
	"campusmart/internal/config"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// DB is the global database manager instance
var DB *Manager

// initMutex prevents concurrent initialization
var initMutex sync.Mutex

// InitDB initializes the database manager and runs migrations
func InitDB(cfg *config.Config, logger *zap.Logger) error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if DB != nil {
		logger.Info("Database manager already initialized")
		return nil
	}

	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	logger.Info("Starting database initialization",
		zap.String("environment", cfg.Server.Environment))

	if err := validateAndEnhanceDatabaseConfig(&cfg.Database, cfg.Server.Environment); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	manager, err := NewManager(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	DB = manager

	migrationsPath := determineMigrationsPath(cfg.Database.MigrationsPath)
	logger.Info("Using migrations path", zap.String("path", migrationsPath))

	if err := runMigrationsWithRetry(manager, migrationsPath, logger); err != nil {
		DB = nil
		manager.Close()
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	healthTimeout := getHealthTimeoutForEnvironment(cfg.Server.Environment)
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	if err := waitForHealthWithBackoff(ctx, manager, logger); err != nil {
		DB = nil
		manager.Close()
		return fmt.Errorf("database failed to become healthy: %w", err)
	}

	// Start background monitoring only after the database is confirmed healthy
	manager.health.StartMonitoring()

	logInitializationSuccess(manager, migrationsPath, logger)

	return nil
}

func validateAndEnhanceDatabaseConfig(cfg *config.DatabaseConfig, environment string) error {
	if cfg.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Environment-specific pool defaults
	switch environment {
	case "production":
		if cfg.MaxOpenConns == 0 {
			cfg.MaxOpenConns = 50
		}
		if cfg.MaxIdleConns == 0 {
			cfg.MaxIdleConns = 20
		}
		if cfg.ConnMaxLifetime == 0 {
			cfg.ConnMaxLifetime = 15 * time.Minute
		}

		// Ensure SSL is enabled for production
		if !strings.Contains(cfg.URL, "sslmode=") {
			cfg.URL += " sslmode=require"
		}

	case "staging":
		if cfg.MaxOpenConns == 0 {
			cfg.MaxOpenConns = 25
		}
		if cfg.MaxIdleConns == 0 {
			cfg.MaxIdleConns = 10
		}
		if cfg.ConnMaxLifetime == 0 {
			cfg.ConnMaxLifetime = 10 * time.Minute
		}

	default: // development
		if cfg.MaxOpenConns == 0 {
			cfg.MaxOpenConns = 10
		}
		if cfg.MaxIdleConns == 0 {
			cfg.MaxIdleConns = 5
		}
		if cfg.ConnMaxLifetime == 0 {
			cfg.ConnMaxLifetime = 5 * time.Minute
		}
	}

	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}

	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		cfg.MaxIdleConns = cfg.MaxOpenConns
	}

	return nil
}

func runMigrationsWithRetry(manager *Manager, migrationsPath string, logger *zap.Logger) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)

	attempt := 0
	operation := func() error {
		attempt++
		logger.Info("Running database migrations",
			zap.String("path", migrationsPath),
			zap.Int("attempt", attempt))

		if err := manager.Migrate(migrationsPath); err != nil {
			logger.Warn("Migration attempt failed", zap.Error(err), zap.Int("attempt", attempt))
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("migrations failed after %d attempts: %w", attempt, err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func waitForHealthWithBackoff(ctx context.Context, manager *Manager, logger *zap.Logger) error {
	logger.Info("Waiting for database to become healthy")

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0 // bounded by ctx

	operation := func() error {
		healthStatus := manager.Health(ctx)
		if healthStatus.Status == StatusHealthy {
			logger.Info("Database is healthy",
				zap.Duration("response_time", healthStatus.ResponseTime))
			return nil
		}

		logger.Debug("Database not healthy yet, retrying",
			zap.String("status", healthStatus.Status),
			zap.Strings("errors", healthStatus.Errors))
		return fmt.Errorf("database status: %s", healthStatus.Status)
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("timeout waiting for database health: %w", err)
	}
	return nil
}

func determineMigrationsPath(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	paths := []string{
		"./migrations",
		"./internal/database/migrations",
		"../migrations",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "./migrations"
}

func getHealthTimeoutForEnvironment(environment string) time.Duration {
	switch environment {
	case "production":
		return 60 * time.Second
	case "staging":
		return 45 * time.Second
	default:
		return 30 * time.Second
	}
}

func logInitializationSuccess(manager *Manager, migrationsPath string, logger *zap.Logger) {
	snapshot := manager.Metrics()
	stats := manager.Stats()

	logger.Info("Database initialized successfully",
		zap.String("migrations_path", migrationsPath),
		zap.Int("max_open_connections", stats.MaxOpenConnections),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Duration("avg_query_duration", snapshot.AvgQueryDuration),
	)
}

// GetDB returns the global database manager
func GetDB() *Manager {
	return DB
}

// Close closes the global database manager
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// Health reports the health of the global database manager
func Health(ctx context.Context) *HealthStatus {
	if DB == nil {
		return &HealthStatus{
			Status:    StatusUnhealthy,
			Timestamp: time.Now(),
			Errors:    []string{"Database not initialized"},
			Details:   make(map[string]interface{}),
		}
	}
	return DB.Health(ctx)
}

// GetMetrics returns a metrics snapshot from the global manager
func GetMetrics() *MetricsSnapshot {
	if DB == nil {
		return &MetricsSnapshot{
			Timestamp: time.Now(),
		}
	}
	return DB.Metrics()
}

// ExecuteTransaction runs fn inside a transaction on the global manager
func ExecuteTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// IsConnected reports whether the global manager is healthy
func IsConnected(ctx context.Context) bool {
	if DB == nil {
		return false
	}

	status := DB.Health(ctx)
	return status.Status == StatusHealthy
}

// GetConnectionStats exposes pool statistics for health endpoints
func GetConnectionStats() map[string]interface{} {
	if DB == nil {
		return map[string]interface{}{
			"error": "database not initialized",
		}
	}

	stats := DB.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}
