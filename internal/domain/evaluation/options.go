package evaluation

import (
	"github.com/okian/clipscout/pkg/logger"
)

// Option applies a configuration option to a requester.
type Option func(*callConfig)

// WithTemperature sets the sampling temperature sent to the service.
func WithTemperature(t float32) Option {
	return func(c *callConfig) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithMaxOutputTokens sets the output token ceiling.
func WithMaxOutputTokens(n int) Option {
	return func(c *callConfig) {
		if n > 0 {
			c.maxOutputTokens = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *callConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
