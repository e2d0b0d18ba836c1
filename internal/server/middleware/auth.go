package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated principal.
	AuthPrincipalKey contextKeyAuth = "auth_principal"
)

// Where a session token was presented.
const (
	SourceCookie = "cookie"
	SourceBearer = "bearer"
)

// Principal is the signed-in admin making the request.
type Principal struct {
	User   *model.User
	Source string
}

// Authenticate validates the session token from the access_token cookie or,
// failing that, an Authorization: Bearer header. Temp tokens issued during
// two-factor sign-in are rejected. On success the Principal is attached to
// the request context.
func Authenticate(authSvc *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, source := sessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Not authenticated. Please sign in.")
				return
			}

			user, err := authSvc.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					writeError(w, http.StatusUnauthorized, "Session expired or invalid. Please sign in again.")
					return
				}
				logger.Error("authenticate request", "error", err, "request_id", GetRequestID(r.Context()))
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, &Principal{User: user, Source: source})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) (string, string) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, SourceCookie
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), SourceBearer
	}
	return "", ""
}

// BearerToken returns the bearer token of r, if any.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireToken rejects requests whose bearer token is not token. It guards
// machine endpoints such as /metrics that have no admin session.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := BearerToken(r)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "Not authenticated.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

// CurrentUser returns the signed-in admin, or nil.
func CurrentUser(ctx context.Context) *model.User {
	if p := GetPrincipal(ctx); p != nil {
		return p.User
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message},
	})
}
