package service

import "errors"

// Error kinds for the auth core. Handlers map these onto redirects or HTTP
// statuses; everything expected is a typed error, never a panic.
var (
	// ErrUnauthorized covers every authentication failure: missing token,
	// revoked session, unknown subject. Codec-level failures keep their own
	// kind (jwtx.ErrTokenInvalid) and are equally treated as 401s.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means authenticated but lacking the required role. An
	// authorization failure, deliberately distinct from ErrUnauthorized.
	ErrForbidden = errors.New("forbidden")

	// ErrRefreshFailed means the refresh token did not verify or reissuance
	// failed; the client must log in again.
	ErrRefreshFailed = errors.New("refresh_failed")

	// ErrInvalidCredentials is the single undifferentiated login failure.
	// Wrong email and wrong password are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrEmailTaken reports a registration conflict.
	ErrEmailTaken = errors.New("email_taken")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }
