package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("job queue is full")
	ErrJobNotFound  = errors.New("job not found")
)
