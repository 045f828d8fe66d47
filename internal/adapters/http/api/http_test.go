package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/clipscout/internal/adapters/http/api"
	"github.com/okian/clipscout/internal/adapters/repository"
	service "github.com/okian/clipscout/internal/app"
	"github.com/okian/clipscout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps records the owner of each call and returns scripted results.
type mockDeps struct {
	mu sync.Mutex

	analyzeErr error
	submitErr  error
	duplicate  bool
	stored     map[string]repository.StoredAnalysis

	owners  []string
	keys    []string
	limits  []int
	lastReq model.AnalysisRequest
}

func newMockDeps() *mockDeps {
	return &mockDeps{stored: map[string]repository.StoredAnalysis{}}
}

func (m *mockDeps) seen(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners = append(m.owners, owner)
}

func (m *mockDeps) Analyze(_ context.Context, owner string, req model.AnalysisRequest) (*model.AnalysisRecord, error) {
	m.seen(owner)
	m.lastReq = req
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	rec := &model.AnalysisRecord{
		ID:         "a-1",
		Mode:       req.Mode,
		Subject:    req.Subject,
		Evaluation: model.EvaluationRecord{"summary": "fine"},
		Highlights: []model.Highlight{{TimeMark: "00:10", Description: "goal", QualityTag: "excellent"}},
		CreatedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	m.stored[rec.ID] = repository.StoredAnalysis{Owner: owner, Clip: req.Clip, Record: *rec}
	return rec, nil
}

func (m *mockDeps) Submit(_ context.Context, owner, key string, req model.AnalysisRequest) (model.JobStatus, bool, error) {
	m.seen(owner)
	m.keys = append(m.keys, key)
	m.lastReq = req
	if m.submitErr != nil {
		return model.JobStatus{}, false, m.submitErr
	}
	return model.JobStatus{ID: "job-1", State: model.JobQueued}, m.duplicate, nil
}

func (m *mockDeps) Job(_ context.Context, owner, id string) (model.JobStatus, error) {
	m.seen(owner)
	if id != "job-1" {
		return model.JobStatus{}, fmt.Errorf("job %s: %w", id, service.ErrJobNotFound)
	}
	return model.JobStatus{ID: id, State: model.JobSucceeded, AnalysisID: "a-1"}, nil
}

func (m *mockDeps) Get(_ context.Context, owner, id string) (repository.StoredAnalysis, error) {
	m.seen(owner)
	a, ok := m.stored[id]
	if !ok || a.Owner != owner {
		return repository.StoredAnalysis{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *mockDeps) List(_ context.Context, owner string, limit int) ([]repository.StoredAnalysis, error) {
	m.seen(owner)
	m.limits = append(m.limits, limit)
	if limit > 100 {
		return nil, repository.ErrInvalidLimit
	}
	var out []repository.StoredAnalysis
	for _, a := range m.stored {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockDeps) Delete(_ context.Context, owner, id string) error {
	m.seen(owner)
	if a, ok := m.stored[id]; !ok || a.Owner != owner {
		return repository.ErrNotFound
	}
	delete(m.stored, id)
	return nil
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "queueLength": 0}
}

const validBody = `{"clip_url":"https://cdn.example.com/c.mp4","duration_seconds":30,"player_name":"Ana","player_position":"Striker","mode":"match"}`

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestAnalysesRoutes(t *testing.T) {
	Convey("Given an API router", t, func() {
		deps := newMockDeps()
		router := api.NewServer(deps).Router()
		owner := map[string]string{api.OwnerHeader: "coach-1"}

		Convey("POST /v1/analyses returns the composed record", func() {
			w := do(router, http.MethodPost, "/v1/analyses", validBody, owner)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Header().Get("Location"), ShouldEqual, "/v1/analyses/a-1")

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["id"], ShouldEqual, "a-1")
			So(body["mode"], ShouldEqual, "competitive")
			So(body["subject"].(map[string]any)["display_name"], ShouldEqual, "Ana")
			So(body["clip"].(map[string]any)["locator"], ShouldEqual, "https://cdn.example.com/c.mp4")
			So(len(body["highlights"].([]any)), ShouldEqual, 1)

			So(deps.owners, ShouldResemble, []string{"coach-1"})
		})

		Convey("Defaults are applied to missing subject fields and duration", func() {
			w := do(router, http.MethodPost, "/v1/analyses", `{"clip_url":"https://cdn.example.com/c.mp4","mode":"practice"}`, nil)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(deps.lastReq.Subject.DisplayName, ShouldEqual, model.DefaultDisplayName)
			So(deps.lastReq.Subject.Role, ShouldEqual, model.DefaultRole)
			So(deps.lastReq.Clip.DurationSeconds, ShouldEqual, model.DefaultDurationSeconds)
			So(deps.owners, ShouldResemble, []string{"anonymous"})
		})

		Convey("Malformed input is rejected with 400 before analysis", func() {
			for _, body := range []string{
				`{not json`,
				`{"clip_url":"https://cdn.example.com/c.mp4","mode":"friendly"}`,
				`{"clip_url":"relative/path.mp4","mode":"competitive"}`,
				`{"clip_url":"https://cdn.example.com/c.mp4","mode":"competitive","extra":1}`,
			} {
				w := do(router, http.MethodPost, "/v1/analyses", body, owner)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "invalid_request")
			}
			So(deps.owners, ShouldBeEmpty)
		})

		Convey("Pipeline error kinds map to statuses", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{model.NewKind("t", model.ErrUpstream, "quota"), http.StatusBadGateway, "upstream_error"},
				{model.NewKind("t", model.ErrServiceUnavailable, "no key"), http.StatusServiceUnavailable, "service_unavailable"},
				{fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal"},
			}
			for _, c := range cases {
				deps.analyzeErr = c.err
				w := do(router, http.MethodPost, "/v1/analyses", validBody, owner)
				So(w.Code, ShouldEqual, c.status)
				So(decodeError(w)["code"], ShouldEqual, c.code)
			}
		})

		Convey("Internal error messages are not echoed", func() {
			deps.analyzeErr = fmt.Errorf("dsn password=hunter2 rejected")
			w := do(router, http.MethodPost, "/v1/analyses", validBody, owner)
			So(w.Body.String(), ShouldNotContainSubstring, "hunter2")
		})

		Convey("Stored analyses can be listed, fetched and deleted by their owner", func() {
			So(do(router, http.MethodPost, "/v1/analyses", validBody, owner).Code, ShouldEqual, http.StatusCreated)

			w := do(router, http.MethodGet, "/v1/analyses", "", owner)
			So(w.Code, ShouldEqual, http.StatusOK)
			var list struct {
				Analyses []map[string]any `json:"analyses"`
				Count    int              `json:"count"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &list), ShouldBeNil)
			So(list.Count, ShouldEqual, 1)
			So(deps.limits, ShouldResemble, []int{20})

			So(do(router, http.MethodGet, "/v1/analyses/a-1", "", owner).Code, ShouldEqual, http.StatusOK)
			So(do(router, http.MethodGet, "/v1/analyses/a-1", "", map[string]string{api.OwnerHeader: "other"}).Code, ShouldEqual, http.StatusNotFound)

			So(do(router, http.MethodDelete, "/v1/analyses/a-1", "", owner).Code, ShouldEqual, http.StatusNoContent)
			w = do(router, http.MethodDelete, "/v1/analyses/a-1", "", owner)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("List validates limit", func() {
			So(do(router, http.MethodGet, "/v1/analyses?limit=abc", "", owner).Code, ShouldEqual, http.StatusBadRequest)
			So(do(router, http.MethodGet, "/v1/analyses?limit=1000", "", owner).Code, ShouldEqual, http.StatusBadRequest)
			So(do(router, http.MethodGet, "/v1/analyses?limit=5", "", owner).Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestJobsRoutes(t *testing.T) {
	Convey("Given an API router", t, func() {
		deps := newMockDeps()
		router := api.NewServer(deps).Router()
		headers := map[string]string{api.OwnerHeader: "coach-1", api.IdempotencyHeader: " upload-9 "}

		Convey("POST /v1/jobs accepts the job", func() {
			w := do(router, http.MethodPost, "/v1/jobs", validBody, headers)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Header().Get("Location"), ShouldEqual, "/v1/jobs/job-1")

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["job_id"], ShouldEqual, "job-1")
			So(body["status"], ShouldEqual, "queued")
			So(body["duplicate"], ShouldEqual, false)
			So(deps.keys, ShouldResemble, []string{"upload-9"})
		})

		Convey("A duplicate submission answers 200", func() {
			deps.duplicate = true
			w := do(router, http.MethodPost, "/v1/jobs", validBody, headers)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})

		Convey("A full queue answers 429", func() {
			deps.submitErr = fmt.Errorf("submit: %w", service.ErrBackpressure)
			w := do(router, http.MethodPost, "/v1/jobs", validBody, headers)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decodeError(w)["code"], ShouldEqual, "backpressure")
		})

		Convey("A stopped service answers 503", func() {
			deps.submitErr = service.ErrNotStarted
			w := do(router, http.MethodPost, "/v1/jobs", validBody, headers)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("GET /v1/jobs/{id} returns the status or 404", func() {
			w := do(router, http.MethodGet, "/v1/jobs/job-1", "", headers)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"analysis_id":"a-1"`)

			So(do(router, http.MethodGet, "/v1/jobs/nope", "", headers).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given an API router", t, func() {
		router := api.NewServer(newMockDeps(), api.WithCORSOrigins([]string{"https://app.example.com"})).Router()

		Convey("GET /healthz serves Prometheus metrics", func() {
			_ = do(router, http.MethodGet, "/stats", "", nil)
			w := do(router, http.MethodGet, "/healthz", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "clipscout_")
		})

		Convey("GET /stats returns the provider's stats", func() {
			w := do(router, http.MethodGet, "/stats", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("CORS preflight allows the configured origin and custom headers", func() {
			w := do(router, http.MethodOptions, "/v1/jobs", "", map[string]string{
				"Origin":                         "https://app.example.com",
				"Access-Control-Request-Method":  http.MethodPost,
				"Access-Control-Request-Headers": "Idempotency-Key",
			})
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://app.example.com")
		})

		Convey("Unknown routes are 404", func() {
			So(do(router, http.MethodGet, "/v2/analyses", "", nil).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
