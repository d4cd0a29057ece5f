package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/session"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store/drivers/memory"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/cryptox"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/idx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var (
	testAccessKey  = []byte("test-access-key-32-bytes-long!!!")
	testRefreshKey = []byte("test-refresh-key-32-bytes-long!!")
)

const (
	testIssuer   = "enterprise-ec-demo"
	testAudience = "enterprise-ec-demo"
)

type testEnv struct {
	store     *memory.Store
	blacklist *session.Memory
	tokens    *service.TokenService
	resolver  *service.SessionResolver
	users     *service.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := memory.NewStore()
	bl := session.NewMemory(nil)

	tokens, err := service.NewTokenService(
		testAccessKey, testRefreshKey,
		testIssuer, testAudience,
		15*time.Minute, 7*24*time.Hour,
		st, bl,
	)
	require.NoError(t, err)

	accessVerifier, err := jwtx.NewVerifier(testAccessKey, testIssuer, testAudience)
	require.NoError(t, err)

	return &testEnv{
		store:     st,
		blacklist: bl,
		tokens:    tokens,
		resolver: &service.SessionResolver{
			Verifier:  accessVerifier,
			Blacklist: bl,
			Users:     st.Users(),
		},
		users: &service.UserService{Store: st},
	}
}

// registerUser creates a user through the registration path. Admins are
// inserted directly since registration never escalates roles.
func (e *testEnv) registerUser(t *testing.T, email string, role domain.Role) domain.User {
	t.Helper()
	ctx := context.Background()

	if role == domain.RoleUser {
		u, err := e.users.Register(ctx, service.RegisterInput{
			Email:     email,
			Password:  "password123",
			FirstName: "Test",
			LastName:  "User",
		})
		require.NoError(t, err)
		return u
	}

	hash, err := cryptox.HashPassword("password123")
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FirstName:    "Test",
		LastName:     "Admin",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Users().CreateUser(ctx, u))
	return u
}

func TestIssuePair(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.registerUser(t, "alice@example.com", domain.RoleUser)

	pair, err := env.tokens.IssuePair(ctx, u)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	t.Run("access token carries identity claims", func(t *testing.T) {
		verifier, err := jwtx.NewVerifier(testAccessKey, testIssuer, testAudience)
		require.NoError(t, err)

		claims, err := verifier.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.Subject)
		require.Equal(t, u.Email, claims.Email)
		require.Equal(t, string(domain.RoleUser), claims.Role)
	})

	t.Run("refresh token is signed with a different key", func(t *testing.T) {
		verifier, err := jwtx.NewVerifier(testAccessKey, testIssuer, testAudience)
		require.NoError(t, err)

		_, err = verifier.Verify(pair.RefreshToken)
		require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	})

	t.Run("access expires before refresh", func(t *testing.T) {
		access, ok := jwtx.Peek(pair.AccessToken)
		require.True(t, ok)
		refresh, ok := jwtx.Peek(pair.RefreshToken)
		require.True(t, ok)
		require.True(t, access.ExpiresAt.Before(refresh.ExpiresAt.Time))
	})

	t.Run("session row records the pair", func(t *testing.T) {
		sessions, err := env.store.Sessions().ListActiveSessionsForUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		require.Equal(t, u.ID, sessions[0].UserID)
		require.NotEmpty(t, sessions[0].AccessTokenFP)
		require.NotEmpty(t, sessions[0].RefreshTokenFP)
		require.NotContains(t, sessions[0].AccessTokenFP, ".")
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.registerUser(t, "bob@example.com", domain.RoleUser)

	pair, err := env.tokens.IssuePair(ctx, u)
	require.NoError(t, err)

	t.Run("rotation issues distinct tokens with same identity", func(t *testing.T) {
		rotated, err := env.tokens.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, pair.AccessToken, rotated.AccessToken)
		require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		verifier, err := jwtx.NewVerifier(testAccessKey, testIssuer, testAudience)
		require.NoError(t, err)
		claims, err := verifier.Verify(rotated.AccessToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.Subject)
		require.Equal(t, u.Email, claims.Email)
		require.Equal(t, string(u.Role), claims.Role)
	})

	t.Run("garbage token fails", func(t *testing.T) {
		_, err := env.tokens.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, service.ErrRefreshFailed)
	})

	t.Run("access token is not accepted as refresh", func(t *testing.T) {
		_, err := env.tokens.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, service.ErrRefreshFailed)
	})

	t.Run("revoked refresh token fails", func(t *testing.T) {
		fresh, err := env.tokens.IssuePair(ctx, u)
		require.NoError(t, err)

		require.NoError(t, env.tokens.Revoke(ctx, fresh.RefreshToken))

		_, err = env.tokens.Refresh(ctx, fresh.RefreshToken)
		require.ErrorIs(t, err, service.ErrRefreshFailed)
	})
}

func TestRevokeAllForSubject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.registerUser(t, "carol@example.com", domain.RoleUser)
	other := env.registerUser(t, "dave@example.com", domain.RoleUser)

	first, err := env.tokens.IssuePair(ctx, u)
	require.NoError(t, err)
	second, err := env.tokens.IssuePair(ctx, u)
	require.NoError(t, err)
	bystander, err := env.tokens.IssuePair(ctx, other)
	require.NoError(t, err)

	require.NoError(t, env.tokens.RevokeAllForSubject(ctx, u.ID))

	for _, token := range []string{first.AccessToken, first.RefreshToken, second.AccessToken, second.RefreshToken} {
		_, err := env.tokens.Refresh(ctx, token)
		require.Error(t, err)
	}

	t.Run("resolver rejects revoked access tokens", func(t *testing.T) {
		_, err := env.resolver.Resolve(ctx, first.AccessToken)
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("other subjects are untouched", func(t *testing.T) {
		_, err := env.resolver.Resolve(ctx, bystander.AccessToken)
		require.NoError(t, err)
	})
}

func TestRevokeAllForSubjectAfterRotation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.registerUser(t, "erin@example.com", domain.RoleUser)

	original, err := env.tokens.IssuePair(ctx, u)
	require.NoError(t, err)

	// Rotation marks the original session replaced but leaves its refresh
	// token verifiable. The sweep must still reach it.
	rotated, err := env.tokens.Refresh(ctx, original.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, env.tokens.RevokeAllForSubject(ctx, u.ID))

	_, err = env.tokens.Refresh(ctx, original.RefreshToken)
	require.ErrorIs(t, err, service.ErrRefreshFailed)

	_, err = env.tokens.Refresh(ctx, rotated.RefreshToken)
	require.ErrorIs(t, err, service.ErrRefreshFailed)

	_, err = env.resolver.Resolve(ctx, rotated.AccessToken)
	require.ErrorIs(t, err, service.ErrUnauthorized)
}
