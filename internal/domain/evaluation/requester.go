package evaluation

import (
	"context"

	"github.com/okian/clipscout/internal/domain/extract"
	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/internal/domain/vision"
	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"
)

// Request purposes, used as log and metric labels.
const (
	PurposeEvaluation = "evaluation"
	PurposeHighlights = "highlights"
)

// Defaults for evaluation calls.
const (
	DefaultEvaluationTemperature = 0.2
	DefaultEvaluationMaxTokens   = 2000
)

type callConfig struct {
	service         vision.Service
	temperature     float32
	maxOutputTokens int
	logger          logger.Logger
}

func newCallConfig(svc vision.Service, temperature float32, maxTokens int, opts []Option) callConfig {
	c := callConfig{
		service:         svc,
		temperature:     temperature,
		maxOutputTokens: maxTokens,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c callConfig) request(purpose, instructions string, frames []model.FrameSample) vision.Request {
	return vision.Request{
		Purpose:         purpose,
		Instructions:    instructions,
		References:      references(frames),
		Temperature:     c.temperature,
		MaxOutputTokens: c.maxOutputTokens,
	}
}

// Requester asks the inference service for a mode-specific evaluation.
// A nil service is allowed and makes every call fail as unavailable.
type Requester struct {
	callConfig
}

// NewRequester creates an evaluation requester.
func NewRequester(svc vision.Service, opts ...Option) *Requester {
	return &Requester{callConfig: newCallConfig(svc, DefaultEvaluationTemperature, DefaultEvaluationMaxTokens, opts)}
}

// RequestEvaluation sends one request for clip and shapes the reply with the
// schema of mode. Unparseable replies give an empty or partial record, not an
// error.
func (r *Requester) RequestEvaluation(ctx context.Context, clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext, mode model.EvaluationMode) (model.EvaluationRecord, error) {
	const op = "evaluation.request"

	schema, err := SchemaFor(mode)
	if err != nil {
		return nil, err
	}
	if r.service == nil {
		return nil, model.NewKind(op, model.ErrServiceUnavailable, "no inference service configured")
	}

	frames = capFrames(frames)
	req := r.request(PurposeEvaluation, schema.Instructions(clip, frames, subject), frames)
	raw, err := r.service.Complete(ctx, req)
	if err != nil {
		return nil, classify(op, err)
	}

	res := extract.Object(raw)
	metrics.RecordExtractionStrategy(PurposeEvaluation, res.Strategy)
	record := schema.Shape(res.Value)
	if res.Strategy == extract.StrategyNone {
		r.logger.Warn(ctx, "evaluation reply held no JSON object",
			logger.String("mode", mode.String()),
			logger.Int("reply_bytes", len(raw)),
		)
	}
	r.logger.Debug(ctx, "evaluation shaped",
		logger.String("mode", mode.String()),
		logger.String("strategy", res.Strategy),
		logger.Int("fields", len(record)),
	)
	return record, nil
}
