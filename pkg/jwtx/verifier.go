package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is the single failure kind the codec reports. Structural
// damage, a bad signature, expiry, and issuer/audience mismatch all collapse
// into it so callers only ever handle one path. The wrapped cause is kept for
// logs.
var ErrTokenInvalid = errors.New("jwtx: token invalid or expired")

// Internal causes; surfaced only through ErrTokenInvalid wrapping.
var (
	errMalformed   = errors.New("malformed token")
	errSignature   = errors.New("signature mismatch")
	errIssuer      = errors.New("issuer mismatch")
	errAudience    = errors.New("audience mismatch")
	errExpired     = errors.New("token expired")
	errNotYetValid = errors.New("token not yet valid")
)

// Verifier validates a credential against one HMAC key and fixed
// issuer/audience expectations, and gives you back the claims if it's legit.
type Verifier struct {
	key      []byte
	issuer   string
	audience string

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewVerifier creates a verifier bound to a key and the configured
// issuer/audience values. Empty issuer or audience means "don't enforce".
func NewVerifier(key []byte, issuer, audience string) (*Verifier, error) {
	if len(key) == 0 {
		return nil, errors.New("jwtx: verification key must not be empty")
	}
	return &Verifier{key: key, issuer: issuer, audience: audience, now: time.Now}, nil
}

// Verify checks structure, signature, expiry and the issuer/audience claims.
// It fails closed: any problem at all yields ErrTokenInvalid.
func (v *Verifier) Verify(token string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Claim checks run below so every failure funnels into the one
		// error kind with its cause attached.
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		cause := errMalformed
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			cause = errSignature
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, cause)
	}
	if !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, errSignature)
	}

	if err := claims.ValidateExpiry(v.now().UTC()); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if err := claims.ValidateAudience(v.audience); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	return claims, nil
}
