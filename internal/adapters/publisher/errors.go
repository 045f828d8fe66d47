package publisher

import "errors"

// Sentinel kinds for publisher errors.
var (
	ErrNilRecord = errors.New("publisher: nil record")
)
