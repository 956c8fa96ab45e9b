package services

import "errors"

// Error taxonomy shared by every service. Call sites wrap these with context; callers classify
// with errors.Is.
var (
	// ErrValidation marks malformed input. Nothing is read or fetched before it is returned.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an identifier that no cached record or provider lookup could resolve.
	ErrNotFound = errors.New("not found")
	// ErrProvider marks a failed upstream call with no fallback.
	ErrProvider = errors.New("provider error")
	// ErrStore marks a persistence failure.
	ErrStore = errors.New("store error")
)
