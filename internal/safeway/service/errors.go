package service

import "errors"

// Input errors map to 400 responses and never produce an audit record.
var (
	ErrInvalidCardID   = errors.New("card_id is required")
	ErrInvalidLocation = errors.New("location is required")
	ErrInvalidInput    = errors.New("invalid input")
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrConfiguration means stored data the engine depends on is
	// inconsistent: a malformed window or a credential without an owner.
	ErrConfiguration = errors.New("configuration error")

	// ErrStorage wraps failures of the backing store, including a failed
	// audit append.
	ErrStorage = errors.New("storage unavailable")
)
