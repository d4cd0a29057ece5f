// Package memory provides an in-memory store.Store used by tests and
// throwaway dev instances. All data is lost on process exit.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]domain.User    // by id
	sessions map[string]domain.Session // by refresh token fingerprint
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		sessions: make(map[string]domain.Session),
	}
}

func (s *Store) Users() store.Users       { return (*usersRepo)(s) }
func (s *Store) Sessions() store.Sessions { return (*sessionsRepo)(s) }

func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return nil }

type usersRepo Store

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; ok {
		return store.ErrAlreadyExists
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrAlreadyExists
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users) == 0, nil
}

type sessionsRepo Store

func (r *sessionsRepo) CreateSession(ctx context.Context, sess domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.RefreshTokenFP] = sess
	return nil
}

func (r *sessionsRepo) MarkSessionReplaced(ctx context.Context, refreshTokenFP string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[refreshTokenFP]
	if !ok || sess.ReplacedAt != nil {
		return nil
	}
	sess.ReplacedAt = &at
	r.sessions[refreshTokenFP] = sess
	return nil
}

func (r *sessionsRepo) ListActiveSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now().UTC()
	var active []domain.Session
	for _, sess := range r.sessions {
		if sess.UserID == userID && sess.ReplacedAt == nil && sess.ExpiresAt.After(now) {
			active = append(active, sess)
		}
	}
	return active, nil
}

func (r *sessionsRepo) ListUnexpiredSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now().UTC()
	var unexpired []domain.Session
	for _, sess := range r.sessions {
		if sess.UserID == userID && sess.ExpiresAt.After(now) {
			unexpired = append(unexpired, sess)
		}
	}
	return unexpired, nil
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for fp, sess := range r.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(r.sessions, fp)
		}
	}
	return nil
}
