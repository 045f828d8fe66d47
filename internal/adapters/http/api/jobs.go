package api

import (
	"net/http"
	"strings"

	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// jobResponse acknowledges a submission.
type jobResponse struct {
	model.JobStatus
	Duplicate bool `json:"duplicate"`
}

// JobsHandler serves asynchronous analysis.
type JobsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps Dependencies, l logger.Logger) *JobsHandler {
	return &JobsHandler{deps: deps, logger: l}
}

// HandleSubmit handles POST /v1/jobs. A repeated Idempotency-Key returns the
// job created by the first submission with 200 instead of 202.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_job"
	ctx := r.Context()

	req, err := decodeAnalysisRequest(w, r, op)
	if err != nil {
		writeError(ctx, w, h.logger, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	st, dup, err := h.deps.Submit(ctx, ownerOf(r), key, req)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}

	status := http.StatusAccepted
	if dup {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/v1/jobs/"+st.ID)
	writeJSON(w, status, jobResponse{JobStatus: st, Duplicate: dup})
}

// HandleGet handles GET /v1/jobs/{id}.
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	ctx := r.Context()

	st, err := h.deps.Job(ctx, ownerOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
