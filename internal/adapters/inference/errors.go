package inference

import "errors"

// Sentinel kinds for inference errors. Transport failures wrap
// vision.ErrUnreachable instead.
var (
	// ErrNotConfigured is returned when a client is built without credentials.
	ErrNotConfigured = errors.New("inference client not configured")
	// ErrRequestFailed marks calls the service received but did not complete.
	ErrRequestFailed = errors.New("inference request failed")
	// ErrEmptyResponse marks a completion without choices.
	ErrEmptyResponse = errors.New("inference returned no choices")
)
