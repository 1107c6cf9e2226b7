package apperr

import (
	"errors"
)

// Error taxonomy for the vault server. Handlers map these onto HTTP statuses;
// everything below a handler wraps one of these sentinels so that
// errors.Is works across package boundaries.
var (
	// Identity verification errors
	ErrInvalidAssertion    = errors.New("invalid identity assertion")
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// Session credential errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	// Request authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Persistence and storage errors
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStorageFailure   = errors.New("storage failure")
)

// Retryable reports whether the error represents a transient dependency
// failure that a caller may retry, as opposed to a verification or
// authorization failure which never is.
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrStorageFailure)
}
