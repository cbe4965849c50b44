// file: internal/middleware/recovery.go
package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"

	"go.uber.org/zap"
)

const panicStackSize = 8 << 10

// Recovery converts panics into 500 responses and logs the stack.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := make([]byte, panicStackSize)
					stack = stack[:runtime.Stack(stack, false)]

					requestLogger := GetRequestLogger(r.Context())
					requestLogger.Error("Panic recovered",
						zap.Any("panic", err),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", stack),
					)

					writePanicResponse(w, r)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writePanicResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"type":    "INTERNAL_ERROR",
			"message": "An internal error occurred",
		},
		"request_id": GetRequestID(r.Context()),
	})
}
