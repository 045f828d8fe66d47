// Package service wires the analysis pipeline to storage, publishing and the
// background job machinery. It implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/clipscout/internal/adapters/mq/queue"
	"github.com/okian/clipscout/internal/adapters/mq/worker"
	"github.com/okian/clipscout/internal/adapters/publisher"
	"github.com/okian/clipscout/internal/adapters/repository"
	"github.com/okian/clipscout/internal/domain/dedupe"
	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"

	"github.com/google/uuid"
)

// Analyzer runs one analysis. *analysis.Orchestrator satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, clip model.ClipReference, subject model.SubjectContext, mode model.EvaluationMode) (*model.AnalysisRecord, error)
}

// Service implements the API dependencies for clip analysis.
type Service struct {
	mu sync.RWMutex

	analyzer  Analyzer
	store     repository.Store
	publisher publisher.Publisher
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	jobs      *jobTable

	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// New constructs a Service around analyzer. Components that talk to the
// outside world are optional; the defaults keep everything in memory.
func New(analyzer Analyzer, opts ...Option) *Service {
	s := &Service{
		analyzer:    analyzer,
		publisher:   publisher.Nop{},
		jobs:        newJobTable(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50_000,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithLogger(s.logger.Named("store")))
	}
	return s
}

// Start builds the queue, deduper and worker pool and starts the workers.
// Workers stop when ctx is canceled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting analysis service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, worker.WithLogger(s.logger))
	s.pool.Start(ctx)

	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateStoredAnalyses(n)
	}

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue and waits for running jobs to finish. Jobs still
// queued are abandoned and stay in the queued state.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping analysis service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		s.logger.Warn(ctx, "analysis service stopped with errors", logger.Error(err))
		return fmt.Errorf("stop workers: %w", err)
	}
	s.logger.Info(ctx, "analysis service stopped")
	return nil
}

// Analyze runs the pipeline synchronously, persists the record for owner and
// announces it. Publish failures are logged, never returned.
func (s *Service) Analyze(ctx context.Context, owner string, req model.AnalysisRequest) (*model.AnalysisRecord, error) {
	rec, err := s.analyzer.Analyze(ctx, req.Clip, req.Subject, req.Mode)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, repository.StoredAnalysis{Owner: owner, Clip: req.Clip, Record: *rec}); err != nil {
		metrics.RecordErrorByComponent("store", "save")
		return nil, fmt.Errorf("persist analysis %s: %w", rec.ID, err)
	}

	if err := s.publisher.PublishCompleted(ctx, owner, rec); err != nil {
		s.logger.Warn(ctx, "publish completed analysis failed",
			logger.String("analysis_id", rec.ID),
			logger.Error(err),
		)
	}
	return rec, nil
}

// Submit queues req for background analysis. A non-empty key makes the call
// idempotent per owner: repeating it returns the job the first call created
// and reports duplicate=true. A full queue yields ErrBackpressure.
func (s *Service) Submit(ctx context.Context, owner, key string, req model.AnalysisRequest) (model.JobStatus, bool, error) {
	if err := validate(req); err != nil {
		return model.JobStatus{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.JobStatus{}, false, ErrNotStarted
	}

	id := uuid.NewString()
	dedupeKey := ""
	if key != "" {
		dedupeKey = owner + "\x00" + key
		if existing, seen := s.deduper.Claim(ctx, dedupeKey, id); seen {
			metrics.RecordJobDuplicate()
			st, ok := s.jobs.get(owner, existing)
			if !ok {
				st = model.JobStatus{ID: existing}
			}
			return st, true, nil
		}
	}

	now := time.Now().UTC()
	st := model.JobStatus{ID: id, State: model.JobQueued, UpdatedAt: now}
	s.jobs.put(owner, st)

	err := s.queue.Enqueue(ctx, model.Job{ID: id, Owner: owner, Request: req, SubmittedAt: now})
	if err != nil {
		s.jobs.remove(id)
		if dedupeKey != "" {
			s.deduper.Release(ctx, dedupeKey)
		}
		if errors.Is(err, queue.ErrFull) {
			return model.JobStatus{}, false, fmt.Errorf("submit job: %w", ErrBackpressure)
		}
		return model.JobStatus{}, false, fmt.Errorf("submit job: %w", err)
	}

	metrics.RecordJobSubmitted()
	s.logger.Debug(ctx, "job queued", logger.String("job_id", id), logger.String("owner", owner))
	return st, false, nil
}

// Handle runs one queued job. It is called by the worker pool.
func (s *Service) Handle(ctx context.Context, j model.Job) error {
	s.jobs.update(j.ID, func(st *model.JobStatus) { st.State = model.JobRunning })

	rec, err := s.Analyze(ctx, j.Owner, j.Request)
	if err != nil {
		s.jobs.update(j.ID, func(st *model.JobStatus) {
			st.State = model.JobFailed
			st.ErrorKind = model.KindOf(err)
			st.Error = err.Error()
		})
		metrics.RecordJobFinished(string(model.JobFailed))
		return err
	}

	s.jobs.update(j.ID, func(st *model.JobStatus) {
		st.State = model.JobSucceeded
		st.AnalysisID = rec.ID
	})
	metrics.RecordJobFinished(string(model.JobSucceeded))
	return nil
}

// Job returns the status of a job submitted by owner.
func (s *Service) Job(_ context.Context, owner, id string) (model.JobStatus, error) {
	st, ok := s.jobs.get(owner, id)
	if !ok {
		return model.JobStatus{}, fmt.Errorf("job %s: %w", id, ErrJobNotFound)
	}
	return st, nil
}

// Get returns one stored analysis of owner.
func (s *Service) Get(ctx context.Context, owner, id string) (repository.StoredAnalysis, error) {
	return s.store.Get(ctx, owner, id)
}

// List returns up to limit analyses of owner, newest first.
func (s *Service) List(ctx context.Context, owner string, limit int) ([]repository.StoredAnalysis, error) {
	return s.store.List(ctx, owner, limit)
}

// Delete removes one analysis of owner.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	return s.store.Delete(ctx, owner, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	jobs := make(map[string]int)
	for state, n := range s.jobs.counts() {
		jobs[string(state)] = n
	}
	stats["jobs"] = jobs

	if n, err := s.store.Count(ctx); err == nil {
		stats["storedAnalyses"] = n
		metrics.UpdateStoredAnalyses(n)
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["idempotencyKeys"] = s.deduper.Size()
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}

func validate(req model.AnalysisRequest) error {
	if err := req.Clip.Validate(); err != nil {
		return err
	}
	if !req.Mode.Valid() {
		return model.NewKind("submit", model.ErrInvalidRequest, fmt.Sprintf("unknown evaluation mode %q", req.Mode))
	}
	return nil
}
