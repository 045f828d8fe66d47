// Package vision declares the port the analysis pipeline uses to reach a
// vision-capable model. Adapters implement Service; the domain only sees
// this package.
package vision

import (
	"context"
	"errors"
)

// ErrUnreachable marks transport failures before the service answered.
// Implementations wrap it so callers can tell unavailability from rejection.
var ErrUnreachable = errors.New("inference service unreachable")

// Request is one completion call: instructions plus visual references.
type Request struct {
	// Purpose labels the call for logs and metrics, e.g. "evaluation".
	Purpose         string
	Instructions    string
	References      []string
	Temperature     float32
	MaxOutputTokens int
}

// Service turns instructions and visual references into free-form text.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ServiceFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
