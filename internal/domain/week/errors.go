package week

import "errors"

// Sentinel kinds for week parameter errors.
var (
	ErrInvalidWeek = errors.New("invalid week")
)
