package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Memory is a single-process Blacklist backed by a plain map. Reads dominate
// writes (every request checks, only logouts insert), so it uses an RWMutex.
//
// Limitation: revocations are only visible within this process, and
// RevokeAllForSubject is a logged no-op because no subject-to-token index is
// maintained. Multi-instance deployments must use Redis instead; do not
// present this backend as providing global revocation.
type Memory struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // fingerprint -> credential expiry
	logger  *slog.Logger
}

func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		revoked: make(map[string]time.Time),
		logger:  logger,
	}
}

func (m *Memory) Revoke(ctx context.Context, tokenFP string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenFP] = expiresAt
	return nil
}

func (m *Memory) IsRevoked(ctx context.Context, tokenFP string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[tokenFP]
	return ok, nil
}

func (m *Memory) RevokeAllForSubject(ctx context.Context, subjectID string) error {
	// Best-effort only: without a subject index there is nothing to
	// enumerate. The caller's session store can list active sessions and
	// revoke them individually; this logs so the gap is visible in ops.
	m.logger.Warn("memory blacklist cannot revoke by subject; use the redis backend for global revocation",
		"subject_id", subjectID)
	return nil
}

func (m *Memory) PruneExpired(ctx context.Context) error {
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	for fp, expiresAt := range m.revoked {
		if !expiresAt.After(now) {
			delete(m.revoked, fp)
		}
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// Len reports the number of live revocation entries. Used by housekeeping
// logs and tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.revoked)
}
