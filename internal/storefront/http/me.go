package http

import (
	"net/http"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/httpx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

// MeHandler reports the authenticated user. Runs behind RequireAuthenticated,
// so a principal is always on the context here.
type MeHandler struct {
	Users store.Users
}

type meResponse struct {
	User            userResponse `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	u, err := h.Users.GetUserByID(ctx, p.SubjectID)
	if err != nil {
		log.Warn("failed to load user", "user_id", p.SubjectID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, meResponse{
		User:            newUserResponse(u),
		IsAuthenticated: true,
	})
}
