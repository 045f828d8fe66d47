package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/okian/clipscout/internal/domain/vision"
	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"
	openai "github.com/sashabaranov/go-openai"
)

// Default client configuration constants.
const (
	defaultModel   = "gpt-4o"
	defaultTimeout = 90 * time.Second
)

// OpenAIClient implements vision.Service against an OpenAI-compatible chat
// completions endpoint.
type OpenAIClient struct {
	cli     *openai.Client
	baseURL string
	model   string
	detail  openai.ImageURLDetail
	timeout time.Duration
	logger  logger.Logger
}

var _ vision.Service = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client. An empty apiKey yields ErrNotConfigured so
// callers can leave the service handle absent.
func NewOpenAIClient(apiKey string, opts ...Option) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	c := &OpenAIClient{
		model:   defaultModel,
		detail:  openai.ImageURLDetailLow,
		timeout: defaultTimeout,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	c.cli = openai.NewClientWithConfig(cfg)
	return c, nil
}

// Complete sends the instructions and references as one user message and
// returns the first choice's text. It is called exactly once per request.
func (c *OpenAIClient) Complete(ctx context.Context, req vision.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: c.parts(req),
			},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: temperature(req.Temperature),
	})
	latencyMs := float64(time.Since(start).Milliseconds())
	metrics.RecordInferenceLatency(req.Purpose, latencyMs)

	if err != nil {
		err = classify(err)
		metrics.RecordInferenceCall(req.Purpose, outcomeOf(err))
		c.logger.Warn(ctx, "inference call failed",
			logger.String("purpose", req.Purpose),
			logger.String("model", c.model),
			logger.Float64("latencyMs", latencyMs),
			logger.Error(err),
		)
		return "", err
	}
	if len(resp.Choices) == 0 {
		metrics.RecordInferenceCall(req.Purpose, "empty")
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, ErrEmptyResponse)
	}

	metrics.RecordInferenceCall(req.Purpose, "ok")
	c.logger.Debug(ctx, "inference call completed",
		logger.String("purpose", req.Purpose),
		logger.Int("references", len(req.References)),
		logger.Int("completionTokens", resp.Usage.CompletionTokens),
		logger.Float64("latencyMs", latencyMs),
	)
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) parts(req vision.Request) []openai.ChatMessagePart {
	parts := make([]openai.ChatMessagePart, 0, len(req.References)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: req.Instructions,
	})
	for _, ref := range req.References {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: ref, Detail: c.detail},
		})
	}
	return parts
}

// temperature keeps an explicit zero on the wire. The request field is
// omitempty, so a literal 0 would fall back to the provider default of 1.
func temperature(t float32) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// classify maps transport failures to vision.ErrUnreachable and everything else the
// service rejected or timed out to ErrRequestFailed.
func classify(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w", vision.ErrUnreachable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %w", vision.ErrUnreachable, err)
	}
	return fmt.Errorf("%w: %w", ErrRequestFailed, err)
}

func outcomeOf(err error) string {
	var apiErr *openai.APIError
	switch {
	case errors.Is(err, vision.ErrUnreachable):
		return "unreachable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429:
		return "rate_limited"
	default:
		return "error"
	}
}
