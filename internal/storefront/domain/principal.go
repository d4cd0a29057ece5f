package domain

import "time"

// Principal is the authenticated identity resolved from a verified
// credential. It is minted alongside the tokens and never mutated; a new one
// appears whenever tokens are (re)issued.
type Principal struct {
	SubjectID string
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
