package jobload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/okian/clipscout/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ErrInconsistent reports an idempotency key that resolved to more than one job.
var ErrInconsistent = errors.New("idempotency key resolved to different jobs")

// Run executes a complete load run and returns its statistics.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now(), FailureKinds: map[string]int{}}
	c := newClient(cfg.BaseURL, cfg.Owner, cfg.Timeout)

	log.Info(ctx, "starting job load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("jobs", cfg.Jobs),
		logger.Int("duplicateEvery", cfg.DuplicateEvery),
		logger.Int("workers", cfg.Workers),
	)

	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	subs := generate(cfg)
	byKey, err := submitAll(ctx, c, cfg.Workers, subs, stats)
	if err != nil {
		return stats, fmt.Errorf("job submission failed: %w", err)
	}

	ids, err := verifyKeys(byKey)
	if err != nil {
		return stats, err
	}

	if err := pollAll(ctx, c, cfg, ids, stats, log); err != nil {
		return stats, fmt.Errorf("job polling failed: %w", err)
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "final statistics",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("jobsFailed", stats.JobsFailed),
		logger.Int("unfinished", stats.Unfinished),
		logger.Any("failureKinds", stats.FailureKinds),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// submitAll posts every submission with at most workers in flight and
// returns the job ids each key was answered with.
func submitAll(ctx context.Context, c *client, workers int, subs []Submission, stats *Stats) (map[string][]string, error) {
	var mu sync.Mutex
	byKey := make(map[string][]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, s := range subs {
		s := s
		g.Go(func() error {
			status, ack, err := c.submit(gctx, s)

			mu.Lock()
			defer mu.Unlock()
			stats.Submitted++
			switch {
			case err != nil:
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				stats.Failed++
			case status == http.StatusTooManyRequests:
				stats.Rejected++
			case status == http.StatusAccepted:
				stats.Accepted++
				byKey[s.Key] = append(byKey[s.Key], ack.ID)
			case status == http.StatusOK && ack.Duplicate:
				stats.Duplicates++
				byKey[s.Key] = append(byKey[s.Key], ack.ID)
			default:
				stats.Failed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return byKey, nil
}

// verifyKeys checks that all answers for a key name the same job and
// returns the distinct job ids, sorted.
func verifyKeys(byKey map[string][]string) ([]string, error) {
	ids := make([]string, 0, len(byKey))
	for key, got := range byKey {
		for _, id := range got[1:] {
			if id != got[0] {
				return nil, fmt.Errorf("%w: key %s got %s and %s", ErrInconsistent, key, got[0], id)
			}
		}
		ids = append(ids, got[0])
	}
	sort.Strings(ids)
	return ids, nil
}

// pollAll sweeps job statuses until every job is terminal or PollTimeout passes.
func pollAll(ctx context.Context, c *client, cfg *Config, ids []string, stats *Stats, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.PollTimeout)
	defer cancel()

	pending := ids
	for len(pending) > 0 {
		var next []string
		for _, id := range pending {
			ack, err := c.job(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				return err
			}
			switch ack.Status {
			case "succeeded":
				stats.Succeeded++
			case "failed":
				stats.JobsFailed++
				stats.FailureKinds[ack.ErrorKind]++
			default:
				next = append(next, id)
			}
		}
		if ctx.Err() != nil {
			break
		}
		pending = next
		if len(pending) == 0 {
			break
		}
		log.Debug(ctx, "jobs still running", logger.Int("pending", len(pending)))

		select {
		case <-ctx.Done():
		case <-time.After(cfg.PollInterval):
		}
	}

	if ctx.Err() != nil {
		stats.Unfinished = len(ids) - stats.Succeeded - stats.JobsFailed
		log.Warn(ctx, "poll timeout reached", logger.Int("unfinished", stats.Unfinished))
	}
	return nil
}
