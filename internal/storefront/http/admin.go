package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/httpx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

// AdminHandler exposes operator actions on other users' sessions. Every
// route here sits behind RequireRole(admin).
type AdminHandler struct {
	TokenService *service.TokenService
	Sessions     store.Sessions
}

type revokeUserRequest struct {
	UserID string `json:"userId"`
}

// HandleRevokeUser force-logs-out a user everywhere by revoking every live
// session for them.
func (h *AdminHandler) HandleRevokeUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req revokeUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}

	if err := h.TokenService.RevokeAllForSubject(ctx, req.UserID); err != nil {
		log.Error("failed to revoke sessions", "target_user_id", req.UserID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	admin, _ := PrincipalFrom(ctx)
	log.Info("admin revoked all sessions for user",
		"admin_id", admin.SubjectID,
		"target_user_id", req.UserID,
	)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Sessions revoked"})
}

type sessionResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	ExpiresAt string `json:"expiresAt"`
	CreatedAt string `json:"createdAt"`
}

// HandleListSessions returns the live sessions for a user, for support
// tooling.
func (h *AdminHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "userId is required")
		return
	}

	sessions, err := h.Sessions.ListActiveSessionsForUser(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list sessions", "target_user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal server error")
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			ID:        s.ID,
			UserID:    s.UserID,
			ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"sessions": out})
}
