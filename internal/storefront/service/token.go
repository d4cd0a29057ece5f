package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/session"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/store"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/cryptox"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/idx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/jwtx"
	"github.com/kyoya-oga/enterprise-ec-demo/pkg/slogx"
)

// TokenService issues and rotates access/refresh token pairs. Access and
// refresh tokens are signed with independent keys so one leaked key never
// compromises both lifetimes.
type TokenService struct {
	Store     store.Store
	Blacklist session.Blacklist

	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	accessSigner    *jwtx.Signer
	refreshSigner   *jwtx.Signer
	refreshVerifier *jwtx.Verifier
}

// NewTokenService wires up the signing and verification machinery once so
// hot-path calls never re-derive keys.
func NewTokenService(
	accessKey, refreshKey []byte,
	issuer, audience string,
	accessTTL, refreshTTL time.Duration,
	st store.Store,
	bl session.Blacklist,
) (*TokenService, error) {
	accessSigner, err := jwtx.NewSigner(accessKey)
	if err != nil {
		return nil, fmt.Errorf("access signer: %w", err)
	}
	refreshSigner, err := jwtx.NewSigner(refreshKey)
	if err != nil {
		return nil, fmt.Errorf("refresh signer: %w", err)
	}
	refreshVerifier, err := jwtx.NewVerifier(refreshKey, issuer, audience)
	if err != nil {
		return nil, fmt.Errorf("refresh verifier: %w", err)
	}
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	return &TokenService{
		Store:           st,
		Blacklist:       bl,
		Issuer:          issuer,
		Audience:        audience,
		AccessTTL:       accessTTL,
		RefreshTTL:      refreshTTL,
		accessSigner:    accessSigner,
		refreshSigner:   refreshSigner,
		refreshVerifier: refreshVerifier,
	}, nil
}

// IssuePair signs a fresh access/refresh pair for the user and records the
// session. Only token fingerprints are persisted, never token material.
func (s *TokenService) IssuePair(ctx context.Context, u domain.User) (domain.TokenPair, error) {
	now := time.Now().UTC()

	accessClaims := jwtx.NewClaims(u.ID, u.Email, string(u.Role), s.AccessTTL, s.Issuer, s.Audience, now)
	accessToken, err := s.accessSigner.Sign(accessClaims)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshClaims := jwtx.NewClaims(u.ID, u.Email, string(u.Role), s.RefreshTTL, s.Issuer, s.Audience, now)
	refreshToken, err := s.refreshSigner.Sign(refreshClaims)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	sess := domain.Session{
		ID:             idx.New().String(),
		UserID:         u.ID,
		AccessTokenFP:  cryptox.FingerprintToken(accessToken),
		RefreshTokenFP: cryptox.FingerprintToken(refreshToken),
		ExpiresAt:      now.Add(s.RefreshTTL),
		CreatedAt:      now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return domain.TokenPair{}, fmt.Errorf("record session: %w", err)
	}

	// Backends that maintain a per-subject index get both fingerprints so
	// RevokeAllForSubject can cover tokens it has never seen revoked.
	if tracker, ok := s.Blacklist.(session.SubjectTracker); ok {
		if err := tracker.TrackSubjectToken(ctx, u.ID, sess.AccessTokenFP, now.Add(s.AccessTTL)); err != nil {
			slogx.FromContext(ctx).Warn("failed to track access token for subject",
				slog.String("user_id", u.ID), slog.Any("error", err))
		}
		if err := tracker.TrackSubjectToken(ctx, u.ID, sess.RefreshTokenFP, sess.ExpiresAt); err != nil {
			slogx.FromContext(ctx).Warn("failed to track refresh token for subject",
				slog.String("user_id", u.ID), slog.Any("error", err))
		}
	}

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh verifies the presented refresh token and issues a rotated pair.
// The new claims carry only the subject, email, and role re-derived from the
// verified token; nothing else from the old token is trusted. Every failure
// surfaces as ErrRefreshFailed so callers drive the client back to login.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.refreshVerifier.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	fp := cryptox.FingerprintToken(refreshToken)
	revoked, err := s.Blacklist.IsRevoked(ctx, fp)
	if err != nil {
		l.Error("blacklist lookup failed during refresh", slog.Any("error", err))
		return domain.TokenPair{}, fmt.Errorf("%w: blacklist unavailable", ErrRefreshFailed)
	}
	if revoked {
		return domain.TokenPair{}, fmt.Errorf("%w: token revoked", ErrRefreshFailed)
	}

	u := domain.User{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  domain.Role(claims.Role),
	}

	pair, err := s.IssuePair(ctx, u)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	// Rotation: the superseded session keeps its row for audit, marked as
	// replaced. The old refresh token stays verifiable until it expires or
	// is revoked; the session record is how operators trace the chain.
	if err := s.Store.Sessions().MarkSessionReplaced(ctx, fp, time.Now().UTC()); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Warn("failed to mark session replaced", slog.Any("error", err))
		}
	}

	return pair, nil
}

// Revoke blacklists a single token until its own expiry. Unparseable tokens
// are blacklisted for the full refresh lifetime since their expiry is unknown.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	expiresAt := time.Now().UTC().Add(s.RefreshTTL)
	if claims, ok := jwtx.Peek(token); ok && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.Blacklist.Revoke(ctx, cryptox.FingerprintToken(token), expiresAt)
}

// RevokeAllForSubject invalidates every live session for a user. Session rows
// give the authoritative fingerprint list; the blacklist's own subject index,
// when the backend keeps one, catches tokens issued on other instances.
// Replaced rows are swept too since a rotated-away refresh token remains
// verifiable until it expires.
func (s *TokenService) RevokeAllForSubject(ctx context.Context, subjectID string) error {
	l := slogx.FromContext(ctx)

	sessions, err := s.Store.Sessions().ListUnexpiredSessionsForUser(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("list sessions for %s: %w", subjectID, err)
	}
	for _, sess := range sessions {
		if err := s.Blacklist.Revoke(ctx, sess.AccessTokenFP, sess.ExpiresAt); err != nil {
			l.Error("failed to revoke access token", slog.String("session_id", sess.ID), slog.Any("error", err))
			return err
		}
		if err := s.Blacklist.Revoke(ctx, sess.RefreshTokenFP, sess.ExpiresAt); err != nil {
			l.Error("failed to revoke refresh token", slog.String("session_id", sess.ID), slog.Any("error", err))
			return err
		}
	}

	if err := s.Blacklist.RevokeAllForSubject(ctx, subjectID); err != nil {
		return fmt.Errorf("revoke subject %s: %w", subjectID, err)
	}

	l.Info("revoked all sessions for subject",
		slog.String("user_id", subjectID),
		slog.Int("sessions", len(sessions)),
	)
	return nil
}
