package api

import (
	"net/http"
	"strconv"

	"github.com/okian/clipscout/internal/adapters/repository"
	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/pkg/logger"

	"github.com/go-chi/chi/v5"
)

const defaultListLimit = 20

// analysisView is the response shape of a stored analysis.
type analysisView struct {
	model.AnalysisRecord
	Clip *model.ClipReference `json:"clip,omitempty"`
}

type listResponse struct {
	Analyses []analysisView `json:"analyses"`
	Count    int            `json:"count"`
}

func viewOf(a repository.StoredAnalysis) analysisView {
	clip := a.Clip
	return analysisView{AnalysisRecord: a.Record, Clip: &clip}
}

// AnalysesHandler serves synchronous analysis and the stored records.
type AnalysesHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps Dependencies, l logger.Logger) *AnalysesHandler {
	return &AnalysesHandler{deps: deps, logger: l}
}

// HandleCreate handles POST /v1/analyses. The analysis runs within the
// request and the stored record is returned.
func (h *AnalysesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_analysis"
	ctx := r.Context()

	req, err := decodeAnalysisRequest(w, r, op)
	if err != nil {
		writeError(ctx, w, h.logger, err)
		return
	}

	rec, err := h.deps.Analyze(ctx, ownerOf(r), req)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}

	clip := req.Clip
	w.Header().Set("Location", "/v1/analyses/"+rec.ID)
	writeJSON(w, http.StatusCreated, analysisView{AnalysisRecord: *rec, Clip: &clip})
}

// HandleList handles GET /v1/analyses?limit=N.
func (h *AnalysesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_analyses"
	ctx := r.Context()

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, h.logger, NewKind(op, ErrBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}

	items, err := h.deps.List(ctx, ownerOf(r), limit)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}

	resp := listResponse{Analyses: make([]analysisView, 0, len(items)), Count: len(items)}
	for _, a := range items {
		resp.Analyses = append(resp.Analyses, viewOf(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /v1/analyses/{id}.
func (h *AnalysesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"
	ctx := r.Context()

	a, err := h.deps.Get(ctx, ownerOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, viewOf(a))
}

// HandleDelete handles DELETE /v1/analyses/{id}.
func (h *AnalysesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_analysis"
	ctx := r.Context()

	if err := h.deps.Delete(ctx, ownerOf(r), chi.URLParam(r, "id")); err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
