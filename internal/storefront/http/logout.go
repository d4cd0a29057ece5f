package http

import (
	"net/http"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/httpx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

type LogoutHandler struct {
	TokenService *service.TokenService
	Binding      CookieBinding
}

// ServeHTTP revokes both tokens and clears every credential cookie. Cookie
// clearing is unconditional: a blacklist failure must never leave a browser
// holding credentials the user asked to destroy.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if accessToken := ReadAccessToken(r); accessToken != "" {
		if err := h.TokenService.Revoke(ctx, accessToken); err != nil {
			log.Error("failed to revoke access token on logout", "err", err)
		}
	}
	if refreshToken := ReadRefreshToken(r); refreshToken != "" {
		if err := h.TokenService.Revoke(ctx, refreshToken); err != nil {
			log.Error("failed to revoke refresh token on logout", "err", err)
		}
	}

	h.Binding.ClearCredentialCookies(w)

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
