package aggregator

import "errors"

// Sentinel kinds for aggregator outcomes.
var (
	// ErrReadBack marks a run whose publish succeeded but whose summary
	// read failed. Non-fatal: the authoritative result is already stored.
	ErrReadBack = errors.New("publish succeeded, read-back failed")
)
