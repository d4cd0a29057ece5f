// Package session tracks revoked credentials so a structurally valid,
// unexpired token can still be rejected after logout or forced invalidation.
package session

import (
	"context"
	"time"
)

// Blacklist is the revocation set. Tokens are keyed by their SHA-256
// fingerprint (cryptox.FingerprintToken); the raw credential is never stored.
//
// Operations are forgiving by contract: revoking an already-revoked token is
// a no-op, and checking an unknown token is simply false. Neither is an
// error condition.
type Blacklist interface {
	// Revoke marks a credential invalid until expiresAt, after which the
	// entry may be pruned (the codec rejects the expired credential anyway).
	Revoke(ctx context.Context, tokenFP string, expiresAt time.Time) error

	// IsRevoked reports membership.
	IsRevoked(ctx context.Context, tokenFP string) (bool, error)

	// RevokeAllForSubject invalidates every active credential of a subject.
	// Whether this is guaranteed or best-effort depends on the backend; see
	// the implementations.
	RevokeAllForSubject(ctx context.Context, subjectID string) error

	// PruneExpired drops entries whose underlying credential has expired.
	// Advisory garbage collection: it must never drop a live revocation,
	// and correctness does not depend on it running at all.
	PruneExpired(ctx context.Context) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// SubjectTracker is an optional Blacklist upgrade. Backends that keep a
// subject-to-token index implement it so freshly issued credentials become
// reachable by RevokeAllForSubject. The token issuer feature-detects it with
// a type assertion.
type SubjectTracker interface {
	TrackSubjectToken(ctx context.Context, subjectID, tokenFP string, expiresAt time.Time) error
}
