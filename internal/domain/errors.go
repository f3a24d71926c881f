package domain

import "errors"

var (
	// ErrValidation marks caller input that fails domain validation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups for recipients, batches, or notifications
	// that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks writes rejected because of concurrent state changes.
	ErrConflict = errors.New("conflict")
)
