package jwtx

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Peek decodes the claims segment of a token WITHOUT verifying the signature.
// It exists for non-authoritative inspection only ("is this token about to
// expire") and must never feed an authorization decision. Returns false on any
// decode failure: wrong segment count, bad base64, bad JSON.
func Peek(token string) (Claims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, false
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, false
	}

	return claims, true
}

// IsExpired reports whether the token's exp claim has passed. Undecodable
// tokens and tokens without an exp count as expired. Total: never panics,
// never returns an error.
func IsExpired(token string, now time.Time) bool {
	claims, ok := Peek(token)
	if !ok || claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}
