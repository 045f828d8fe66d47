package inference

import (
	"time"

	"github.com/okian/clipscout/pkg/logger"
	openai "github.com/sashabaranov/go-openai"
)

// Option applies a configuration option to the OpenAIClient.
type Option func(*OpenAIClient)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *OpenAIClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithModel sets the vision model name.
func WithModel(model string) Option {
	return func(c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithImageDetail sets the detail hint sent with each visual reference
// ("low", "high" or "auto").
func WithImageDetail(detail string) Option {
	return func(c *OpenAIClient) {
		switch openai.ImageURLDetail(detail) {
		case openai.ImageURLDetailLow, openai.ImageURLDetailHigh, openai.ImageURLDetailAuto:
			c.detail = openai.ImageURLDetail(detail)
		}
	}
}

// WithTimeout bounds each call in addition to the caller's deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *OpenAIClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *OpenAIClient) {
		if l != nil {
			c.logger = l
		}
	}
}
