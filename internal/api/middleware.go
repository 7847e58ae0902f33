package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/nvandessel/wingman/internal/ratelimit"
)

// UserHeader identifies the caller for rate limiting.
const UserHeader = "X-User-ID"

// RateLimit rejects requests over the caller's limit with 429. If the
// limiter itself fails the request is let through.
func RateLimit(limiter ratelimit.Checker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			ok, err := limiter.Check(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", "key", key, "error", err)
				ok = true
			}
			if !ok {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again shortly")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey prefers the user header over the remote address.
func clientKey(r *http.Request) string {
	if user := strings.TrimSpace(r.Header.Get(UserHeader)); user != "" {
		return "user:" + user
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
