package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer produces compact HS256-signed credentials. The storefront keeps two
// of these, one bound to the access key and one to the refresh key.
type Signer struct {
	key []byte
}

// NewSigner creates a signer from an HMAC secret.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("jwtx: signing key must not be empty")
	}
	return &Signer{key: key}, nil
}

// Sign serializes the claims into a three-part signed token string.
func (s *Signer) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}

	return signed, nil
}
