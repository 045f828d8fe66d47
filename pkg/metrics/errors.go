package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrInvalidInterval = errors.New("metrics: collection interval must be positive")
)
