// file: internal/middleware/rate_limiter.go
package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"campusmart/internal/cache"
	"campusmart/internal/config"

	"go.uber.org/zap"
)

// RateLimiter throttles requests per client IP using fixed windows
// backed by the shared cache, so limits hold across instances when
// redis backs it.
type RateLimiter struct {
	cache    cache.Cache
	limit    int
	window   time.Duration
	logger   *zap.Logger
}

// NewRateLimiter creates a rate limiter from the security config.
func NewRateLimiter(cacheProvider cache.Cache, cfg *config.SecurityConfig, logger *zap.Logger) *RateLimiter {
	limit := cfg.RateLimitRequests
	if limit <= 0 {
		limit = 100
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		cache:  cacheProvider,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Limit enforces the per-IP request budget.
func (rl *RateLimiter) Limit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := rl.windowKey(getClientIP(r))

			count, err := rl.cache.Increment(ctx, key, 1)
			if err != nil {
				// Degrade open: a broken cache should not take the API
				// down with it.
				rl.logger.Warn("Rate limit check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := rl.cache.SetTTL(ctx, key, rl.window); err != nil {
					rl.logger.Warn("Failed to set rate limit window", zap.Error(err))
				}
			}

			remaining := rl.limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if int(count) > rl.limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"error":{"type":"RATE_LIMIT","message":"rate limit exceeded"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// windowKey buckets requests into fixed windows per client.
func (rl *RateLimiter) windowKey(clientIP string) string {
	bucket := time.Now().Unix() / int64(rl.window.Seconds())
	return fmt.Sprintf("ratelimit:%s:%d", clientIP, bucket)
}
