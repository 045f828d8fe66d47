package analysis

import (
	"time"

	"github.com/okian/clipscout/internal/domain/evaluation"
	"github.com/okian/clipscout/pkg/logger"
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithConcurrentHighlights runs evaluation and highlight requests in parallel.
// A failure in either still aborts the analysis.
func WithConcurrentHighlights(enabled bool) Option {
	return func(o *Orchestrator) {
		o.concurrent = enabled
	}
}

// WithClock sets the time source used for CreatedAt and latency.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the record id generator.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEvaluationOptions configures the evaluation requester.
func WithEvaluationOptions(opts ...evaluation.Option) Option {
	return func(o *Orchestrator) {
		o.evalOpts = append(o.evalOpts, opts...)
	}
}

// WithHighlightOptions configures the highlight requester.
func WithHighlightOptions(opts ...evaluation.Option) Option {
	return func(o *Orchestrator) {
		o.highlightOpts = append(o.highlightOpts, opts...)
	}
}
