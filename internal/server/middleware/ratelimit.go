package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns an HTTP middleware that limits requests per client IP to
// limit per window. Rejected requests get a JSON 429 with Retry-After set by
// httprate.
func RateLimit(limit int, window time.Duration, message string) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, message)
		}),
	)
}

// LoginRateLimit throttles password and OTP submissions.
func LoginRateLimit() func(http.Handler) http.Handler {
	return RateLimit(10, 15*time.Minute, "Too many sign-in attempts. Please try again later.")
}

// CertificateRateLimit throttles public certificate lookups.
func CertificateRateLimit() func(http.Handler) http.Handler {
	return RateLimit(10, 15*time.Minute, "Too many verification requests. Please try again later.")
}
