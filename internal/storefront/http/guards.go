package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/httpx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/jwtx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

// Guard wraps handlers that need an authenticated principal. Failure behavior
// is pluggable: API routes get JSON errors, page routes get redirects. The
// unauthenticated and forbidden paths are deliberately distinct handlers so
// an authorization failure is never presented as an authentication one.
type Guard struct {
	Resolver *service.SessionResolver

	// OnUnauthenticated handles requests with no valid session. Nil means a
	// JSON 401.
	OnUnauthenticated http.Handler

	// OnForbidden handles authenticated requests with the wrong role. Nil
	// means a JSON 403.
	OnForbidden http.Handler
}

// RequireAuthenticated resolves the session from the access cookie and puts
// the principal on the request context. Protected logic is never reached on
// failure.
func (g *Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Resolver.Resolve(r.Context(), ReadAccessToken(r))
		if err != nil {
			g.unauthenticated(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole builds on RequireAuthenticated and additionally enforces the
// role gate.
func (g *Guard) RequireRole(role domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return g.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFrom(r.Context())
			if p.Role != role {
				g.forbidden(w, r, p)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func (g *Guard) unauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	if g.OnUnauthenticated != nil {
		g.OnUnauthenticated.ServeHTTP(w, r)
		return
	}
	code := "UNAUTHORIZED"
	if errors.Is(err, jwtx.ErrTokenInvalid) {
		code = "TOKEN_INVALID_OR_EXPIRED"
	}
	httpx.WriteError(w, http.StatusUnauthorized, code, "authentication required")
}

func (g *Guard) forbidden(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	slogx.FromContext(r.Context()).Info("role gate rejected request",
		"user_id", p.SubjectID,
		"role", string(p.Role),
		"path", r.URL.Path,
	)
	if g.OnForbidden != nil {
		g.OnForbidden.ServeHTTP(w, r)
		return
	}
	httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
}

// RedirectToLogin is the page-route unauthenticated handler: it sends the
// browser to the login page with the original path preserved in the redirect
// query param.
func RedirectToLogin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := "/login?redirect=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// RedirectToForbidden is the page-route forbidden handler.
func RedirectToForbidden() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
	})
}

// RequireCSRF rejects state-changing requests whose CSRF header does not
// match the CSRF cookie. Safe methods pass through untouched.
func RequireCSRF() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if !VerifyCSRF(r.Header.Get(CSRFHeaderName), ReadCSRFCookie(r)) {
				httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", "csrf token mismatch")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
