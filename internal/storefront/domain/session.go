package domain

import "time"

// TokenPair is the matched access/refresh credential pair issued at login or
// refresh. Both tokens carry the same subject/email/role; the refresh token
// always outlives the access token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session correlates a subject with its currently active credential pair.
// Sessions are created at login, superseded (not edited) on refresh, and
// referenced by the revocation machinery through the token fingerprints.
type Session struct {
	ID             string
	UserID         string
	AccessTokenFP  string // SHA-256 fingerprint, never the raw credential
	RefreshTokenFP string
	ExpiresAt      time.Time // refresh expiry; the pair is dead after this
	CreatedAt      time.Time
	ReplacedAt     *time.Time // set when a refresh supersedes this session
}
