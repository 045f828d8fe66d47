// Package config defines service configuration structures and loading hooks.
//
// Values are layered: defaults from New, then an optional YAML file named by
// CLIPSCOUT_CONFIG, then CLIPSCOUT_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RequestTimeoutSeconds bounds a single HTTP request, including a
	// synchronous analysis.
	RequestTimeoutSeconds int `koanf:"request_timeout_seconds"`

	// CORSOrigins is a comma separated allow-list; "*" allows any origin.
	CORSOrigins string `koanf:"cors_origins"`

	// Inference service. An empty API key leaves the service unconfigured.
	InferenceAPIKey         string `koanf:"inference_api_key"`
	InferenceBaseURL        string `koanf:"inference_base_url"`
	InferenceModel          string `koanf:"inference_model"`
	InferenceImageDetail    string `koanf:"inference_image_detail"`
	InferenceTimeoutSeconds int    `koanf:"inference_timeout_seconds"`

	EvaluationTemperature float64 `koanf:"evaluation_temperature"`
	EvaluationMaxTokens   int     `koanf:"evaluation_max_tokens"`
	HighlightTemperature  float64 `koanf:"highlight_temperature"`
	HighlightMaxTokens    int     `koanf:"highlight_max_tokens"`

	// ConcurrentHighlights runs the evaluation and highlight calls in parallel.
	ConcurrentHighlights bool `koanf:"concurrent_highlights"`

	// PostgresDSN enables the Postgres store; empty keeps analyses in memory.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RedisURL enables completion events on RedisStream.
	RedisURL    string `koanf:"redis_url"`
	RedisStream string `koanf:"redis_stream"`

	WorkerCount  int `koanf:"worker_count"`
	QueueSize    int `koanf:"queue_size"`
	DedupeSize   int `koanf:"dedupe_size"`
	MaxListLimit int `koanf:"max_list_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		RequestTimeoutSeconds:   120,
		CORSOrigins:             "*",
		InferenceModel:          "gpt-4o",
		InferenceImageDetail:    "high",
		InferenceTimeoutSeconds: 90,
		EvaluationTemperature:   0.2,
		EvaluationMaxTokens:     2000,
		HighlightTemperature:    0.3,
		HighlightMaxTokens:      1000,
		RedisStream:             "analyses.completed",
		WorkerCount:             4,
		QueueSize:               1024,
		DedupeSize:              50_000,
		MaxListLimit:            100,
	}
}

// Origins splits CORSOrigins into a trimmed, non-empty list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// RequestTimeout returns RequestTimeoutSeconds as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// InferenceTimeout returns InferenceTimeoutSeconds as a duration.
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutSeconds) * time.Second
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RequestTimeoutSeconds <= 0:
		return fmt.Errorf("%w: request_timeout_seconds must be positive", ErrInvalidConfig)
	case c.InferenceTimeoutSeconds <= 0:
		return fmt.Errorf("%w: inference_timeout_seconds must be positive", ErrInvalidConfig)
	case c.EvaluationTemperature < 0 || c.HighlightTemperature < 0:
		return fmt.Errorf("%w: temperatures must not be negative", ErrInvalidConfig)
	case c.EvaluationMaxTokens <= 0 || c.HighlightMaxTokens <= 0:
		return fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxListLimit <= 0:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	}
	switch c.InferenceImageDetail {
	case "low", "high", "auto":
	default:
		return fmt.Errorf("%w: inference_image_detail must be low, high or auto", ErrInvalidConfig)
	}
	return nil
}
