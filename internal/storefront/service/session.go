package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/session"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/cryptox"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/jwtx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

// SessionResolver turns a raw access token into a Principal. It is the single
// authority on "who is making this request": signature, expiry, revocation,
// and subject existence are all checked here so handlers never re-implement
// any of it.
type SessionResolver struct {
	Verifier  *jwtx.Verifier
	Blacklist session.Blacklist
	Users     store.Users
}

// Resolve validates the token end to end and returns the authenticated
// principal. Failures are always typed: jwtx.ErrTokenInvalid for codec
// rejections, ErrUnauthorized for everything else. It never panics on bad
// input.
func (s *SessionResolver) Resolve(ctx context.Context, token string) (domain.Principal, error) {
	if token == "" {
		return domain.Principal{}, fmt.Errorf("%w: no token", ErrUnauthorized)
	}

	claims, err := s.Verifier.Verify(token)
	if err != nil {
		// Codec failures keep their own kind so callers can distinguish
		// an expired token (worth a refresh) from a missing one.
		return domain.Principal{}, err
	}

	revoked, err := s.Blacklist.IsRevoked(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		slogx.FromContext(ctx).Error("blacklist lookup failed", slog.Any("error", err))
		return domain.Principal{}, fmt.Errorf("%w: blacklist unavailable", ErrUnauthorized)
	}
	if revoked {
		// Revocation beats an otherwise valid signature.
		return domain.Principal{}, fmt.Errorf("%w: session invalidated", ErrUnauthorized)
	}

	u, err := s.Users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, fmt.Errorf("%w: unknown subject", ErrUnauthorized)
		}
		slogx.FromContext(ctx).Error("user lookup failed", slog.String("user_id", claims.Subject), slog.Any("error", err))
		return domain.Principal{}, fmt.Errorf("%w: user lookup failed", ErrUnauthorized)
	}

	p := domain.Principal{
		SubjectID: u.ID,
		Email:     u.Email,
		Role:      u.Role,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// RequireRole resolves the token and enforces the role gate on top. The
// error kinds stay distinct: an unauthenticated caller gets the resolve
// error, an authenticated caller with the wrong role gets ErrForbidden.
func (s *SessionResolver) RequireRole(ctx context.Context, token string, role domain.Role) (domain.Principal, error) {
	p, err := s.Resolve(ctx, token)
	if err != nil {
		return domain.Principal{}, err
	}
	if p.Role != role {
		return domain.Principal{}, fmt.Errorf("%w: requires role %s", ErrForbidden, role)
	}
	return p, nil
}
