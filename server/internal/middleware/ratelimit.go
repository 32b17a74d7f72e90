package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit returns a process-wide token bucket limiter. It returns nil when
// rps <= 0, which Chain skips. A burst of 0 defaults to ceil(rps).
func RateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(math.Ceil(rps))
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				slog.WarnContext(r.Context(), "ratelimit: request rejected",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"}) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
