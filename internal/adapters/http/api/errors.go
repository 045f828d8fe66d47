package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/clipscout/internal/adapters/repository"
	service "github.com/okian/clipscout/internal/app"
	"github.com/okian/clipscout/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
)

// WrapKind annotates err with an operation and a sentinel kind.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind builds an error of kind with a message.
func NewKind(op string, kind error, msg string) error {
	return fmt.Errorf("%s: %w: %s", op, kind, msg)
}

// Wrap annotates err with an operation.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// statusFor maps an error to its HTTP status and response code. This is the
// only place kinds become statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidRequest),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, model.ErrServiceUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
