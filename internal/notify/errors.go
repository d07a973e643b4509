package notify

import "errors"

// Sentinel kinds for push errors.
var (
	ErrMissingServerKey = errors.New("missing FCM server key")
	ErrPushFailed       = errors.New("push send failed")
)
