package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
)

type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, access_token_fp, refresh_token_fp, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.AccessTokenFP, s.RefreshTokenFP, s.ExpiresAt, s.CreatedAt)
	return err
}

func (r *sessionsRepo) MarkSessionReplaced(ctx context.Context, refreshTokenFP string, at time.Time) error {
	// Replacing an unknown fingerprint is a no-op, not an error: the session
	// row may already have been pruned.
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET replaced_at = ? WHERE refresh_token_fp = ? AND replaced_at IS NULL`,
		at, refreshTokenFP)
	return err
}

func (r *sessionsRepo) ListActiveSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error) {
	return r.listSessions(ctx,
		`SELECT id, user_id, access_token_fp, refresh_token_fp, expires_at, created_at, replaced_at
		 FROM sessions
		 WHERE user_id = ? AND replaced_at IS NULL AND expires_at > ?`,
		userID, time.Now().UTC())
}

func (r *sessionsRepo) ListUnexpiredSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error) {
	return r.listSessions(ctx,
		`SELECT id, user_id, access_token_fp, refresh_token_fp, expires_at, created_at, replaced_at
		 FROM sessions
		 WHERE user_id = ? AND expires_at > ?`,
		userID, time.Now().UTC())
}

func (r *sessionsRepo) listSessions(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		var replacedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.UserID, &s.AccessTokenFP, &s.RefreshTokenFP,
			&s.ExpiresAt, &s.CreatedAt, &replacedAt); err != nil {
			return nil, err
		}
		if replacedAt.Valid {
			s.ReplacedAt = &replacedAt.Time
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
