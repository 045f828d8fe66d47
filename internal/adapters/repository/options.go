package repository

import (
	"github.com/okian/clipscout/pkg/logger"
)

// Default store configuration constants.
const (
	defaultMaxListLimit = 100
)

type storeConfig struct {
	maxListLimit int
	logger       logger.Logger
}

func newStoreConfig(opts []Option) storeConfig {
	c := storeConfig{
		maxListLimit: defaultMaxListLimit,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option applies a configuration option to a store.
type Option func(*storeConfig)

// WithMaxListLimit sets the largest limit List accepts.
func WithMaxListLimit(n int) Option {
	return func(c *storeConfig) {
		if n > 0 {
			c.maxListLimit = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c storeConfig) checkLimit(limit int) error {
	if limit < 1 || limit > c.maxListLimit {
		return ErrInvalidLimit
	}
	return nil
}
