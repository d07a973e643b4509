package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrMissingWeight marks an event whose slot type has no configured
	// weight. Treated as operator-actionable misconfiguration; the run
	// aborts rather than scoring the slot as zero.
	ErrMissingWeight = errors.New("missing slot weight")
)
