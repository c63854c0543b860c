package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Credential errors. ErrNoCredential covers both "never linked" and
	// "stored credential unusable"; callers that need to distinguish an
	// expired token can match ErrTokenExpired, which wraps it.
	ErrNoCredential  = fmt.Errorf("no usable credential for platform")
	ErrTokenExpired  = fmt.Errorf("%w: access token expired", ErrNoCredential)
	ErrRefreshFailed = fmt.Errorf("token refresh failed")

	// Validation errors
	ErrInvalidPlatform = fmt.Errorf("platform not configured")
	ErrMissingField    = fmt.Errorf("missing required field")
	ErrInvalidInput    = fmt.Errorf("invalid input")

	// Upstream errors: the platform fetch/search itself failed.
	ErrUpstream = fmt.Errorf("platform request failed")

	// Storage errors
	ErrNotFound = fmt.Errorf("not found")
	ErrConflict = fmt.Errorf("uniqueness conflict")
)
