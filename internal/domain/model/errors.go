package model

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the analysis pipeline. Callers match them with errors.Is.
var (
	// ErrInvalidRequest marks input rejected before any external call.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrServiceUnavailable marks an inference service that is not configured or not reachable.
	ErrServiceUnavailable = errors.New("inference service unavailable")
	// ErrUpstream marks a reachable inference service whose call failed.
	ErrUpstream = errors.New("inference upstream error")
)

// WrapKind annotates err with an operation name and an error kind.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind builds an error of the given kind with a message.
func NewKind(op string, kind error, msg string) error {
	return fmt.Errorf("%s: %w: %s", op, kind, msg)
}

// KindOf returns a short label for the error kind, used for metrics and responses.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	default:
		return "internal"
	}
}
