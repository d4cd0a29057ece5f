package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revokedKeyPrefix = "revoked:"
	subjectKeyPrefix = "subject:"
)

// Redis is a Blacklist backed by a shared redis instance, giving revocation
// visibility across all storefront instances. Each revocation is a key with a
// TTL matching the credential's remaining lifetime, so redis prunes entries
// itself; PruneExpired only tidies the subject indexes.
//
// RevokeAllForSubject is guaranteed here: TrackSubjectToken maintains a
// per-subject sorted set of fingerprints, scored by expiry, that the bulk
// operation walks.
type Redis struct {
	client *redis.Client
}

// RedisConfig holds connection settings for the blacklist backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: connect redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Revoke(ctx context.Context, tokenFP string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; the codec rejects it regardless.
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+tokenFP, "1", ttl).Err()
}

// TrackSubjectToken records an issued (not revoked) credential under the
// subject index, so a later RevokeAllForSubject can reach it. The entry
// carries no revocation by itself. The index is a sorted set scored by the
// credential's expiry, so the bulk revocation can give each entry a TTL
// matching its remaining lifetime whatever the configured token lifetimes.
func (r *Redis) TrackSubjectToken(ctx context.Context, subjectID, tokenFP string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := subjectKeyPrefix + subjectID
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(expiresAt.Unix()), Member: tokenFP})
	// Keep the index alive at least as long as its longest-lived member.
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) IsRevoked(ctx context.Context, tokenFP string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenFP).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) RevokeAllForSubject(ctx context.Context, subjectID string) error {
	now := time.Now().UTC()
	key := subjectKeyPrefix + subjectID
	entries, err := r.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", now.Unix()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return err
	}

	// Each entry is revoked for its own remaining lifetime, taken from the
	// expiry score recorded at issue time. Entries past their expiry are
	// skipped; the codec rejects those tokens regardless.
	pipe := r.client.TxPipeline()
	for _, entry := range entries {
		fp, ok := entry.Member.(string)
		if !ok {
			continue
		}
		ttl := time.Unix(int64(entry.Score), 0).Sub(now)
		if ttl <= 0 {
			continue
		}
		pipe.Set(ctx, revokedKeyPrefix+fp, "1", ttl)
	}
	pipe.Del(ctx, key)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) PruneExpired(ctx context.Context) error {
	// Per-key TTLs do the real pruning server-side.
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
