// Package analysis runs the clip analysis pipeline: sample frames, request a
// mode-specific evaluation, request highlights and compose the record.
package analysis

import (
	"context"
	"time"

	"github.com/okian/clipscout/internal/domain/evaluation"
	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/internal/domain/sampling"
	"github.com/okian/clipscout/internal/domain/vision"
	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Orchestrator is stateless per call and safe for concurrent use.
type Orchestrator struct {
	service    vision.Service
	evaluator  *evaluation.Requester
	highlights *evaluation.HighlightRequester

	concurrent    bool
	now           func() time.Time
	newID         func() string
	logger        logger.Logger
	evalOpts      []evaluation.Option
	highlightOpts []evaluation.Option
}

// NewOrchestrator creates an orchestrator around svc. A nil svc is valid:
// every analysis then fails as service unavailable.
func NewOrchestrator(svc vision.Service, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		service: svc,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.evaluator = evaluation.NewRequester(svc, append([]evaluation.Option{evaluation.WithLogger(o.logger)}, o.evalOpts...)...)
	o.highlights = evaluation.NewHighlightRequester(svc, append([]evaluation.Option{evaluation.WithLogger(o.logger)}, o.highlightOpts...)...)
	return o
}

// run tracks the progress of one Analyze call.
type run struct {
	mode  model.EvaluationMode
	stage Stage
}

// Analyze produces a composed record or a *Failure. No partial records are
// returned. Duration and subject defaults apply to zero-value inputs too.
func (o *Orchestrator) Analyze(ctx context.Context, clip model.ClipReference, subject model.SubjectContext, mode model.EvaluationMode) (*model.AnalysisRecord, error) {
	start := o.now()
	r := &run{mode: mode, stage: StagePending}

	clip = model.NewClipReference(clip.Locator, clip.DurationSeconds)
	subject = model.NewSubjectContext(subject.DisplayName, subject.Role)

	if err := validate(clip, mode); err != nil {
		return nil, o.fail(ctx, r, err)
	}
	metrics.RecordAnalysisStarted(mode.String())

	frames := sampling.Sample(clip)
	r.stage = StageFramesSampled
	metrics.RecordFramesSampled(len(frames))

	var (
		eval       model.EvaluationRecord
		highlights []model.Highlight
		err        error
	)
	if o.concurrent && o.service != nil {
		eval, highlights, err = o.requestConcurrently(ctx, r, clip, frames, subject)
	} else {
		eval, highlights, err = o.requestSequentially(ctx, r, clip, frames, subject)
	}
	if err != nil {
		return nil, o.fail(ctx, r, err)
	}

	record := &model.AnalysisRecord{
		ID:         o.newID(),
		Mode:       mode,
		Subject:    subject,
		Evaluation: eval,
		Highlights: highlights,
		CreatedAt:  o.now().UTC(),
	}
	r.stage = StageComposed

	took := o.now().Sub(start)
	metrics.RecordAnalysisCompleted(mode.String(), float64(took.Milliseconds()))
	o.logger.Info(ctx, "analysis composed",
		logger.String("analysis_id", record.ID),
		logger.String("mode", mode.String()),
		logger.Int("frames", len(frames)),
		logger.Int("evaluation_fields", len(eval)),
		logger.Int("highlights", len(highlights)),
		logger.Duration("took", took),
	)
	return record, nil
}

func (o *Orchestrator) requestSequentially(ctx context.Context, r *run, clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext) (model.EvaluationRecord, []model.Highlight, error) {
	eval, err := o.evaluator.RequestEvaluation(ctx, clip, frames, subject, r.mode)
	if err != nil {
		return nil, nil, err
	}
	r.stage = StageEvaluated

	highlights, err := o.highlights.RequestHighlights(ctx, clip, frames, subject, r.mode)
	if err != nil {
		return nil, nil, err
	}
	r.stage = StageHighlightsExtracted
	return eval, highlights, nil
}

// requestConcurrently issues both requests under one errgroup; the first
// failure cancels the other branch.
func (o *Orchestrator) requestConcurrently(ctx context.Context, r *run, clip model.ClipReference, frames []model.FrameSample, subject model.SubjectContext) (model.EvaluationRecord, []model.Highlight, error) {
	var (
		eval       model.EvaluationRecord
		highlights []model.Highlight
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		eval, err = o.evaluator.RequestEvaluation(gctx, clip, frames, subject, r.mode)
		return err
	})
	g.Go(func() error {
		var err error
		highlights, err = o.highlights.RequestHighlights(gctx, clip, frames, subject, r.mode)
		return err
	})
	err := g.Wait()

	// Both branches have returned; eval is non-nil only on success.
	if eval != nil {
		r.stage = StageEvaluated
	}
	if err != nil {
		return nil, nil, err
	}
	r.stage = StageHighlightsExtracted
	return eval, highlights, nil
}

func (o *Orchestrator) fail(ctx context.Context, r *run, err error) error {
	modeLabel := r.mode.String()
	if !r.mode.Valid() {
		modeLabel = "invalid"
	}
	reached := r.stage
	r.stage = StageFailed

	kind := model.KindOf(err)
	metrics.RecordAnalysisFailed(modeLabel, reached.String(), kind)
	o.logger.Warn(ctx, "analysis failed",
		logger.String("mode", modeLabel),
		logger.String("stage", reached.String()),
		logger.String("state", r.stage.String()),
		logger.String("kind", kind),
		logger.Error(err),
	)
	return &Failure{Stage: reached, Err: err}
}

func validate(clip model.ClipReference, mode model.EvaluationMode) error {
	if err := clip.Validate(); err != nil {
		return err
	}
	if !mode.Valid() {
		return model.NewKind("analysis.validate", model.ErrInvalidRequest, "unsupported evaluation mode "+mode.String())
	}
	return nil
}
