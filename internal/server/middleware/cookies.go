package middleware

import (
	"net/http"
	"time"
)

const (
	// SessionCookieName holds the session JWT.
	SessionCookieName = "access_token"
	// CSRFCookieName holds the double-submit CSRF token.
	CSRFCookieName = "_csrf"
	// CSRFHeaderName must echo the CSRF cookie on unsafe cookie-authenticated
	// requests.
	CSRFHeaderName = "X-CSRF-Token"
)

// CookiePolicy decides the attributes of the cookies the server sets.
// Production deployments serve the API cross-site, so cookies there are
// Secure with SameSite=None.
type CookiePolicy struct {
	Secure bool
}

func (p CookiePolicy) sameSite() http.SameSite {
	if p.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetSession writes the session cookie.
func (p CookiePolicy) SetSession(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}

// ClearSession expires the session cookie.
func (p CookiePolicy) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}

// SetCSRF writes the CSRF cookie.
func (p CookiePolicy) SetCSRF(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}
