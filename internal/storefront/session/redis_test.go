package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/session"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis spins up a throwaway redis container for the blacklist
// integration tests. Requires a local docker daemon; skipped in -short runs.
func startRedis(t *testing.T) *session.Redis {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	bl, err := session.NewRedis(ctx, session.RedisConfig{Addr: endpoint})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bl.Close() })

	return bl
}

func TestRedisBlacklist(t *testing.T) {
	bl := startRedis(t)
	ctx := context.Background()
	future := time.Now().UTC().Add(time.Hour)

	t.Run("unknown token is not revoked", func(t *testing.T) {
		revoked, err := bl.IsRevoked(ctx, "fp-unknown")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("revoke then check", func(t *testing.T) {
		require.NoError(t, bl.Revoke(ctx, "fp-1", future))
		require.NoError(t, bl.Revoke(ctx, "fp-1", future)) // idempotent

		revoked, err := bl.IsRevoked(ctx, "fp-1")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("already expired credential is not stored", func(t *testing.T) {
		require.NoError(t, bl.Revoke(ctx, "fp-past", time.Now().UTC().Add(-time.Minute)))

		revoked, err := bl.IsRevoked(ctx, "fp-past")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("revoke all for subject covers tracked tokens", func(t *testing.T) {
		require.NoError(t, bl.TrackSubjectToken(ctx, "user-9", "fp-a", future))
		require.NoError(t, bl.TrackSubjectToken(ctx, "user-9", "fp-b", future))

		require.NoError(t, bl.RevokeAllForSubject(ctx, "user-9"))

		for _, fp := range []string{"fp-a", "fp-b"} {
			revoked, err := bl.IsRevoked(ctx, fp)
			require.NoError(t, err)
			require.True(t, revoked, "fingerprint %s", fp)
		}
	})

	t.Run("revoke all for subject honors long-lived expiries", func(t *testing.T) {
		// The revocation TTL comes from each entry's recorded expiry, so a
		// deployment with refresh lifetimes beyond a week stays covered.
		farFuture := time.Now().UTC().Add(30 * 24 * time.Hour)
		require.NoError(t, bl.TrackSubjectToken(ctx, "user-10", "fp-long", farFuture))
		require.NoError(t, bl.TrackSubjectToken(ctx, "user-10", "fp-stale", time.Now().UTC().Add(-time.Minute)))

		require.NoError(t, bl.RevokeAllForSubject(ctx, "user-10"))

		revoked, err := bl.IsRevoked(ctx, "fp-long")
		require.NoError(t, err)
		require.True(t, revoked)

		// The already-expired entry is never stored as a revocation.
		revoked, err = bl.IsRevoked(ctx, "fp-stale")
		require.NoError(t, err)
		require.False(t, revoked)
	})
}
