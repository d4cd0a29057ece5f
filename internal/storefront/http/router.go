package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/session"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/httpx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	binding      CookieBinding
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	blacklist session.Blacklist

	Resolver     *service.SessionResolver
	TokenService *service.TokenService
	UserService  *service.UserService
}

func NewRouter(
	binding CookieBinding,
	st store.Store,
	bl session.Blacklist,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		binding:      binding,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		blacklist:    bl,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /api/login - strict rate limit (authentication attempts)
	loginHandler := &LoginHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
		Binding:      r.binding,
	}
	r.Mux.Handle("POST /api/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/register - strict rate limit (public signup endpoint)
	registerHandler := &RegisterHandler{UserService: r.UserService}
	r.Mux.Handle("POST /api/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /api/auth/refresh - moderate rate limit, CSRF-checked
	refreshHandler := &RefreshHandler{TokenService: r.TokenService, Binding: r.binding}
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(refreshHandler,
			RequireCSRF(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /api/auth/logout - moderate rate limit, CSRF-checked
	logoutHandler := &LogoutHandler{TokenService: r.TokenService, Binding: r.binding}
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(logoutHandler,
			RequireCSRF(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAccount() {
	guard := &Guard{Resolver: r.Resolver}

	// GET /api/auth/me - authenticated, lenient rate limit
	meHandler := &MeHandler{Users: r.store.Users()}
	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(meHandler,
			guard.RequireAuthenticated,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	guard := &Guard{Resolver: r.Resolver}
	h := &AdminHandler{
		TokenService: r.TokenService,
		Sessions:     r.store.Sessions(),
	}

	// POST /api/admin/users/revoke - admin only, CSRF-checked
	r.Mux.Handle("POST /api/admin/users/revoke",
		httpx.Chain(http.HandlerFunc(h.HandleRevokeUser),
			guard.RequireRole(domain.RoleAdmin),
			RequireCSRF(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /api/admin/sessions - admin only
	r.Mux.Handle("GET /api/admin/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleListSessions),
			guard.RequireRole(domain.RoleAdmin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.blacklist),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
