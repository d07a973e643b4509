package store

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrUnavailable marks a store that could not be reached or queried.
	// Safe to retry: weekly recomputation is idempotent.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalidLimit rejects non-positive summary limits.
	ErrInvalidLimit = errors.New("invalid summary limit")
)
