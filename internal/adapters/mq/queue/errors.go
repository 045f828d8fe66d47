package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("job queue full")
	ErrClosed = errors.New("job queue closed")
)
