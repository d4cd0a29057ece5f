package http

import (
	"net/http"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/cryptox"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/httpx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

type RefreshHandler struct {
	TokenService *service.TokenService
	Binding      CookieBinding
}

// ServeHTTP rotates the credential pair using the refresh cookie. On any
// failure the client is told to log in again; stale cookies are cleared so
// the browser does not keep retrying a dead token.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	refreshToken := ReadRefreshToken(r)
	if refreshToken == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "REFRESH_FAILED", "no refresh token")
		return
	}

	pair, err := h.TokenService.Refresh(ctx, refreshToken)
	if err != nil {
		log.Info("token refresh rejected", "err", err)
		h.Binding.ClearCredentialCookies(w)
		httpx.WriteError(w, http.StatusUnauthorized, "REFRESH_FAILED", "refresh token rejected")
		return
	}

	// The CSRF cookie is reissued alongside the credentials. Its 24h lifetime
	// is shorter than the refresh chain's, so without a new one a still-valid
	// session would eventually be unable to refresh or log out.
	csrfToken, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate csrf token", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	h.Binding.SetCredentialCookies(w, pair.AccessToken, pair.RefreshToken, csrfToken)

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}
