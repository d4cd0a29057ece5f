package http

import (
	"crypto/subtle"
	"net/http"
	"time"
)

// Cookie names are part of the public contract with the frontend; changing
// them invalidates every live session.
const (
	AuthCookieName    = "auth-token"
	RefreshCookieName = "refresh-token"
	CSRFCookieName    = "csrf-token"

	// CSRFHeaderName is where the frontend echoes the csrf-token cookie on
	// state-changing requests.
	CSRFHeaderName = "X-CSRF-Token"
)

const (
	authCookieMaxAge    = 15 * 60
	refreshCookieMaxAge = 7 * 24 * 60 * 60
	csrfCookieMaxAge    = 24 * 60 * 60
)

// CookieBinding writes and clears the credential cookies with fixed security
// attributes. Attributes are not configurable per call; the only knob is
// Secure, which tracks the production flag.
type CookieBinding struct {
	Secure bool
}

func (b CookieBinding) cookie(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   b.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge <= 0 {
		c.Expires = time.Unix(0, 0)
	}
	return c
}

// SetCredentialCookies sets the access, refresh, and CSRF cookies. The CSRF
// cookie is deliberately not httpOnly so the frontend can echo it back in the
// request header. An empty csrfToken skips that cookie only.
func (b CookieBinding) SetCredentialCookies(w http.ResponseWriter, accessToken, refreshToken, csrfToken string) {
	http.SetCookie(w, b.cookie(AuthCookieName, accessToken, authCookieMaxAge, true))
	http.SetCookie(w, b.cookie(RefreshCookieName, refreshToken, refreshCookieMaxAge, true))
	if csrfToken != "" {
		http.SetCookie(w, b.cookie(CSRFCookieName, csrfToken, csrfCookieMaxAge, false))
	}
}

// ClearCredentialCookies expires all three cookies. Safe to call whether or
// not the request carried any of them.
func (b CookieBinding) ClearCredentialCookies(w http.ResponseWriter) {
	http.SetCookie(w, b.cookie(AuthCookieName, "", -1, true))
	http.SetCookie(w, b.cookie(RefreshCookieName, "", -1, true))
	http.SetCookie(w, b.cookie(CSRFCookieName, "", -1, false))
}

// ReadAccessToken returns the access token from the request, or "" if absent.
func ReadAccessToken(r *http.Request) string { return readCookie(r, AuthCookieName) }

// ReadRefreshToken returns the refresh token from the request, or "" if absent.
func ReadRefreshToken(r *http.Request) string { return readCookie(r, RefreshCookieName) }

// ReadCSRFCookie returns the CSRF cookie value, or "" if absent.
func ReadCSRFCookie(r *http.Request) string { return readCookie(r, CSRFCookieName) }

func readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// VerifyCSRF is true only when the header and cookie values are both present
// and equal. Empty inputs fail closed. Comparison is constant-time; the CSRF
// token is a secret even though it lives in a readable cookie.
func VerifyCSRF(headerValue, cookieValue string) bool {
	if headerValue == "" || cookieValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(headerValue), []byte(cookieValue)) == 1
}
