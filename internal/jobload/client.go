package jobload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client wraps http.Client with the headers the API expects.
type client struct {
	http    *http.Client
	baseURL string
	owner   string
}

func newClient(baseURL, owner string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		owner:   owner,
	}
}

func (c *client) do(ctx context.Context, method, path string, body any, headers map[string]string) (int, []byte, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Owner-ID", c.owner)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// health checks GET /healthz.
func (c *client) health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned status %d", status)
	}
	return nil
}

// submit posts one job. The ack is only decoded for 200 and 202.
func (c *client) submit(ctx context.Context, s Submission) (int, JobAck, error) {
	status, data, err := c.do(ctx, http.MethodPost, "/v1/jobs", s.Body, map[string]string{"Idempotency-Key": s.Key})
	if err != nil {
		return status, JobAck{}, err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return status, JobAck{}, nil
	}
	var ack JobAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return status, JobAck{}, fmt.Errorf("decode job ack: %w", err)
	}
	return status, ack, nil
}

// job polls GET /v1/jobs/{id}.
func (c *client) job(ctx context.Context, id string) (JobAck, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/v1/jobs/"+id, nil, nil)
	if err != nil {
		return JobAck{}, err
	}
	if status != http.StatusOK {
		return JobAck{}, fmt.Errorf("job %s: status %d", id, status)
	}
	var ack JobAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return JobAck{}, fmt.Errorf("decode job status: %w", err)
	}
	return ack, nil
}
