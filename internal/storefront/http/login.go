package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/cryptox"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/httpx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

type LoginHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
	Binding      CookieBinding
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body")
		return
	}

	u, err := h.UserService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	pair, err := h.TokenService.IssuePair(ctx, u)
	if err != nil {
		log.Error("failed to issue token pair", "user_id", u.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	// One CSRF token per session, minted at login. No fallback source: if the
	// system's random source fails, login fails.
	csrfToken, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate csrf token", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	h.Binding.SetCredentialCookies(w, pair.AccessToken, pair.RefreshToken, csrfToken)

	log.Info("user logged in", "user_id", u.ID)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		User:    newUserResponse(u),
	})
}
