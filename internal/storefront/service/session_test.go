package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/cryptox"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.registerUser(t, "alice@example.com", domain.RoleUser)

	pair, err := env.tokens.IssuePair(ctx, u)
	require.NoError(t, err)

	t.Run("valid token resolves to principal", func(t *testing.T) {
		p, err := env.resolver.Resolve(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, p.SubjectID)
		require.Equal(t, u.Email, p.Email)
		require.Equal(t, domain.RoleUser, p.Role)
		require.False(t, p.ExpiresAt.IsZero())
		require.True(t, p.ExpiresAt.After(p.IssuedAt))
	})

	t.Run("empty token is unauthorized", func(t *testing.T) {
		_, err := env.resolver.Resolve(ctx, "")
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("garbage token is a codec failure", func(t *testing.T) {
		_, err := env.resolver.Resolve(ctx, "not even close to a jwt")
		require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	})

	t.Run("tampered token is a codec failure", func(t *testing.T) {
		parts := strings.Split(pair.AccessToken, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

		_, err := env.resolver.Resolve(ctx, tampered)
		require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	})

	t.Run("expired token is a codec failure", func(t *testing.T) {
		signer, err := jwtx.NewSigner(testAccessKey)
		require.NoError(t, err)
		claims := jwtx.NewClaims(u.ID, u.Email, string(u.Role), -time.Minute, testIssuer, testAudience, time.Now().UTC())
		expired, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = env.resolver.Resolve(ctx, expired)
		require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	})

	t.Run("revoked token is unauthorized despite valid signature", func(t *testing.T) {
		fresh, err := env.tokens.IssuePair(ctx, u)
		require.NoError(t, err)

		fp := cryptox.FingerprintToken(fresh.AccessToken)
		require.NoError(t, env.blacklist.Revoke(ctx, fp, time.Now().UTC().Add(time.Hour)))

		_, err = env.resolver.Resolve(ctx, fresh.AccessToken)
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("token for a deleted subject is unauthorized", func(t *testing.T) {
		signer, err := jwtx.NewSigner(testAccessKey)
		require.NoError(t, err)
		claims := jwtx.NewClaims("ghost-user", "ghost@example.com", "user", time.Minute, testIssuer, testAudience, time.Now().UTC())
		orphan, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = env.resolver.Resolve(ctx, orphan)
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})
}

func TestRequireRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u := env.registerUser(t, "user@example.com", domain.RoleUser)
	admin := env.registerUser(t, "admin@example.com", domain.RoleAdmin)

	userPair, err := env.tokens.IssuePair(ctx, u)
	require.NoError(t, err)
	adminPair, err := env.tokens.IssuePair(ctx, admin)
	require.NoError(t, err)

	t.Run("matching role passes", func(t *testing.T) {
		p, err := env.resolver.RequireRole(ctx, adminPair.AccessToken, domain.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, admin.ID, p.SubjectID)
	})

	t.Run("wrong role is forbidden, not unauthorized", func(t *testing.T) {
		_, err := env.resolver.RequireRole(ctx, userPair.AccessToken, domain.RoleAdmin)
		require.ErrorIs(t, err, service.ErrForbidden)
		require.NotErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("anonymous is unauthorized, not forbidden", func(t *testing.T) {
		_, err := env.resolver.RequireRole(ctx, "", domain.RoleAdmin)
		require.ErrorIs(t, err, service.ErrUnauthorized)
		require.NotErrorIs(t, err, service.ErrForbidden)
	})
}
