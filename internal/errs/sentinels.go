// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Token lifecycle.
var (
	// ErrAccountNotFound indicates the linked account does not exist, is inactive,
	// or is not owned by the requesting principal.
	ErrAccountNotFound = errors.New("linked account not found")

	// ErrRefreshTokenMissing indicates the stored credential cannot be refreshed.
	ErrRefreshTokenMissing = errors.New("refresh token missing")

	// ErrRefreshFailed indicates the OAuth provider rejected the refresh attempt.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Remote provider and mirror.
var (
	// ErrProviderUnavailable covers network errors and 4xx/5xx answers from the remote API.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMirrorEmpty is joined to the provider error when the local fallback found nothing.
	ErrMirrorEmpty = errors.New("mirror has no matching records")
)

// Generic.
var (
	ErrValidation    = errors.New("validation")
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnsupported   = errors.New("operation not supported")
	ErrAlreadyExists = errors.New("already exists")
)
