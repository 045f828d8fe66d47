package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream completed analyses are appended to.
const DefaultStream = "analyses.completed"

// Option applies a configuration option to the RedisPublisher.
type Option func(*RedisPublisher)

// WithStream sets the target stream key.
func WithStream(stream string) Option {
	return func(p *RedisPublisher) {
		if stream != "" {
			p.stream = stream
		}
	}
}

// WithMaxLen caps the stream length, trimmed approximately on every add.
func WithMaxLen(n int64) Option {
	return func(p *RedisPublisher) {
		if n > 0 {
			p.maxLen = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *RedisPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// RedisPublisher appends completed analyses to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger logger.Logger
}

// NewRedisPublisher creates a publisher on an existing client.
func NewRedisPublisher(client *redis.Client, opts ...Option) *RedisPublisher {
	p := &RedisPublisher{
		client: client,
		stream: DefaultStream,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stream returns the target stream key.
func (p *RedisPublisher) Stream() string { return p.stream }

// PublishCompleted implements Publisher.
func (p *RedisPublisher) PublishCompleted(ctx context.Context, owner string, record *model.AnalysisRecord) error {
	if record == nil {
		return ErrNilRecord
	}
	data, err := json.Marshal(record)
	if err != nil {
		metrics.RecordPublish("error")
		return fmt.Errorf("marshal analysis %s: %w", record.ID, err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":        string(data),
			"analysis_id": record.ID,
			"mode":        record.Mode.String(),
			"owner":       owner,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		metrics.RecordPublish("error")
		return fmt.Errorf("publish to stream %s: %w", p.stream, err)
	}
	metrics.RecordPublish("ok")
	p.logger.Debug(ctx, "analysis published",
		logger.String("analysis_id", record.ID),
		logger.String("stream", p.stream),
		logger.String("entry_id", id),
	)
	return nil
}
