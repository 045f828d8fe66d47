package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/clipscout/internal/jobload"
	"github.com/okian/clipscout/pkg/logger"
)

// Default configuration constants.
const (
	defaultJobs           = 50
	defaultDuplicateEvery = 5
	defaultTimeout        = 30 * time.Second
	defaultPollInterval   = time.Second
	defaultPollTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:9080", "Base URL of the service")
		owner          = flag.String("owner", "job-load", "Owner sent as X-Owner-ID")
		jobs           = flag.Int("jobs", defaultJobs, "Number of distinct jobs to submit")
		duplicateEvery = flag.Int("duplicate-every", defaultDuplicateEvery, "Resubmit every Nth idempotency key; 0 disables")
		workers        = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollInterval   = flag.Duration("poll-interval", defaultPollInterval, "Delay between status sweeps")
		pollTimeout    = flag.Duration("poll-timeout", defaultPollTimeout, "How long to wait for jobs to finish")
		clipBaseURL    = flag.String("clip-base-url", "https://cdn.example.com/load", "Prefix for generated clip URLs")
		verbose        = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &jobload.Config{
		BaseURL:        *baseURL,
		Owner:          *owner,
		Jobs:           *jobs,
		DuplicateEvery: *duplicateEvery,
		Workers:        *workers,
		Timeout:        *timeout,
		PollInterval:   *pollInterval,
		PollTimeout:    *pollTimeout,
		ClipBaseURL:    *clipBaseURL,
	}

	stats, err := jobload.Run(ctx, cfg, logger.Named("job-load"))
	if err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if stats.Unfinished > 0 || stats.Failed > 0 {
		os.Exit(2)
	}
}
