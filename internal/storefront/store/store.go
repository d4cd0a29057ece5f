package store

import (
	"context"
	"errors"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// deployments, memory for tests and throwaway dev instances) implement this.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Users() Users
	Sessions() Sessions

	// ApplyMigrations brings the schema up to date. A no-op for drivers
	// without a schema.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing store is still reachable.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by email, case-insensitively. Used
	// during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users. Drives dev-mode seeding.
	IsEmpty(ctx context.Context) (bool, error)
}

type Sessions interface {
	// CreateSession records a freshly issued credential pair.
	CreateSession(ctx context.Context, s domain.Session) error

	// MarkSessionReplaced stamps replaced_at on the session holding this
	// refresh-token fingerprint. Called during rotation.
	MarkSessionReplaced(ctx context.Context, refreshTokenFP string, at time.Time) error

	// ListActiveSessionsForUser returns unexpired, unreplaced sessions for a
	// subject. Feeds the admin session listing.
	ListActiveSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error)

	// ListUnexpiredSessionsForUser returns every unexpired session for a
	// subject, replaced rows included. Feeds RevokeAllForSubject: a refresh
	// token superseded by rotation is still verifiable until it expires, so
	// the revocation sweep must reach its fingerprints too.
	ListUnexpiredSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error)

	// DeleteExpiredSessions is housekeeping; sessions past their refresh
	// expiry carry no information the codec doesn't already enforce.
	DeleteExpiredSessions(ctx context.Context) error
}
