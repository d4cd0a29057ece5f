package jwtx_test

import (
	"testing"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "enterprise-ec-demo"
	testAudience = "enterprise-ec-demo"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, key []byte, ttl time.Duration, now time.Time) string {
	t.Helper()

	signer, err := jwtx.NewSigner(key)
	require.NoError(t, err)

	claims := jwtx.NewClaims("user-1", "taro@example.com", "user", ttl, testIssuer, testAudience, now)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func TestVerifyRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	token := signToken(t, testKey, time.Minute, now)

	verifier, err := jwtx.NewVerifier(testKey, testIssuer, testAudience)
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "taro@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, testIssuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)
	require.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	require.Greater(t, claims.ExpiresAt.Unix(), claims.IssuedAt.Unix())
}

func TestVerifySingleFailureKind(t *testing.T) {
	verifier, err := jwtx.NewVerifier(testKey, testIssuer, testAudience)
	require.NoError(t, err)

	now := time.Now().UTC()

	t.Run("wrong key", func(t *testing.T) {
		token := signToken(t, []byte("some-other-key"), time.Minute, now)
		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, testKey, time.Minute, now.Add(-time.Hour))
		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, token := range []string{"", "not-a-token", "a.b", "a.b.c.d", "!!.@@.##"} {
			_, err := verifier.Verify(token)
			require.ErrorIs(t, err, jwtx.ErrTokenInvalid, "token %q", token)
		}
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		signer, err := jwtx.NewSigner(testKey)
		require.NoError(t, err)
		claims := jwtx.NewClaims("user-1", "taro@example.com", "user", time.Minute, "someone-else", testAudience, now)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		signer, err := jwtx.NewSigner(testKey)
		require.NoError(t, err)
		claims := jwtx.NewClaims("user-1", "taro@example.com", "user", time.Minute, testIssuer, "other-app", now)
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
	})
}

func TestPeek(t *testing.T) {
	now := time.Now().UTC()

	t.Run("decodes without verification", func(t *testing.T) {
		token := signToken(t, testKey, time.Minute, now)

		claims, ok := jwtx.Peek(token)
		require.True(t, ok)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "user", claims.Role)
	})

	t.Run("decodes even with a foreign key", func(t *testing.T) {
		// Peek is non-authoritative; signature is not checked.
		token := signToken(t, []byte("foreign"), time.Minute, now)

		_, ok := jwtx.Peek(token)
		require.True(t, ok)
	})

	t.Run("fails on junk", func(t *testing.T) {
		for _, token := range []string{"", "a.b", "a.!!!.c", "a.b.c.d"} {
			_, ok := jwtx.Peek(token)
			require.False(t, ok, "token %q", token)
		}
	})
}

func TestIsExpired(t *testing.T) {
	now := time.Now().UTC()

	t.Run("fresh token", func(t *testing.T) {
		token := signToken(t, testKey, time.Minute, now)
		require.False(t, jwtx.IsExpired(token, now))
	})

	t.Run("past exp", func(t *testing.T) {
		token := signToken(t, testKey, time.Minute, now.Add(-time.Hour))
		require.True(t, jwtx.IsExpired(token, now))
	})

	t.Run("undecodable counts as expired", func(t *testing.T) {
		require.True(t, jwtx.IsExpired("garbage", now))
		require.True(t, jwtx.IsExpired("", now))
	})
}
