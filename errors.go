package relay

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a configuration value failed validation.
	ErrValidation = errors.New("validation error")

	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrNoProvider indicates no remote provider could be resolved.
	ErrNoProvider = errors.New("no provider configured")
)
