// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/clipscout/internal/adapters/repository"
	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	StatsProvider

	Analyze(ctx context.Context, owner string, req model.AnalysisRequest) (*model.AnalysisRecord, error)
	Submit(ctx context.Context, owner, key string, req model.AnalysisRequest) (model.JobStatus, bool, error)
	Job(ctx context.Context, owner, id string) (model.JobStatus, error)

	Get(ctx context.Context, owner, id string) (repository.StoredAnalysis, error)
	List(ctx context.Context, owner string, limit int) ([]repository.StoredAnalysis, error)
	Delete(ctx context.Context, owner, id string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analysesHandler *AnalysesHandler
	jobsHandler     *JobsHandler

	origins        []string
	requestTimeout time.Duration
	logger         logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed origins. Empty means any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithRequestTimeout bounds every request handled by the router.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		requestTimeout: 2 * time.Minute,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.analysesHandler = NewAnalysesHandler(deps, s.logger)
	s.jobsHandler = NewJobsHandler(deps, s.logger)
	return s
}

// Router returns a chi router with middleware and every route attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.requestTimeout))

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", OwnerHeader, IdempotencyHeader},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	s.Register(r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyses", MetricsMiddleware(s.analysesHandler.HandleCreate, "analyses_create"))
		r.Get("/analyses", MetricsMiddleware(s.analysesHandler.HandleList, "analyses_list"))
		r.Get("/analyses/{id}", MetricsMiddleware(s.analysesHandler.HandleGet, "analyses_get"))
		r.Delete("/analyses/{id}", MetricsMiddleware(s.analysesHandler.HandleDelete, "analyses_delete"))

		r.Post("/jobs", MetricsMiddleware(s.jobsHandler.HandleSubmit, "jobs_submit"))
		r.Get("/jobs/{id}", MetricsMiddleware(s.jobsHandler.HandleGet, "jobs_get"))
	})
}

// analysisRequest mirrors the OpenAPI schema for POST /v1/analyses and POST /v1/jobs.
type analysisRequest struct {
	ClipURL         string  `json:"clip_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	PlayerName      string  `json:"player_name"`
	PlayerPosition  string  `json:"player_position"`
	Mode            string  `json:"mode"`
}

// toModel applies the domain defaults and validates the clip and mode.
func (a analysisRequest) toModel() (model.AnalysisRequest, error) {
	mode, err := model.ParseEvaluationMode(a.Mode)
	if err != nil {
		return model.AnalysisRequest{}, err
	}
	clip := model.NewClipReference(a.ClipURL, a.DurationSeconds)
	if err := clip.Validate(); err != nil {
		return model.AnalysisRequest{}, err
	}
	return model.AnalysisRequest{
		Clip:    clip,
		Subject: model.NewSubjectContext(a.PlayerName, a.PlayerPosition),
		Mode:    mode,
	}, nil
}

func decodeAnalysisRequest(w http.ResponseWriter, r *http.Request, op string) (model.AnalysisRequest, error) {
	var body analysisRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return model.AnalysisRequest{}, WrapKind(op, ErrBadRequest, err)
	}
	req, err := body.toModel()
	if err != nil {
		return model.AnalysisRequest{}, Wrap(op, err)
	}
	return req, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status its kind maps to. Server-side
// failures are logged; their message is not echoed to the client.
func writeError(ctx context.Context, w http.ResponseWriter, l logger.Logger, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && code == "internal" {
		l.Error(ctx, "request failed", logger.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
