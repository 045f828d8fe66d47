package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/clipscout/internal/adapters/http/api"
	"github.com/okian/clipscout/internal/adapters/http/swagger"
	"github.com/okian/clipscout/internal/adapters/inference"
	"github.com/okian/clipscout/internal/adapters/publisher"
	"github.com/okian/clipscout/internal/adapters/repository"
	app "github.com/okian/clipscout/internal/app"
	"github.com/okian/clipscout/internal/config"
	"github.com/okian/clipscout/internal/domain/analysis"
	"github.com/okian/clipscout/internal/domain/evaluation"
	"github.com/okian/clipscout/internal/domain/vision"
	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	writeTimeoutSlack     = 10 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "clipscout exited", logger.Error(err))
		os.Exit(1)
	}
}

// run wires every component from cfg and serves HTTP until ctx is canceled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	go func() {
		if err := (&metrics.SystemCollector{}).Run(ctx, systemMetricsInterval); err != nil {
			log.Warn(ctx, "system metrics collector stopped", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RequestTimeout() + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildService assembles the analysis service. The returned cleanup closes
// external connections and must be called after the service has stopped.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	svcInference, err := buildInference(cfg, log)
	if err != nil {
		return nil, cleanup, err
	}

	orchestrator := analysis.NewOrchestrator(svcInference,
		analysis.WithConcurrentHighlights(cfg.ConcurrentHighlights),
		analysis.WithLogger(log.Named("analysis")),
		analysis.WithEvaluationOptions(
			evaluation.WithTemperature(float32(cfg.EvaluationTemperature)),
			evaluation.WithMaxOutputTokens(cfg.EvaluationMaxTokens),
		),
		analysis.WithHighlightOptions(
			evaluation.WithTemperature(float32(cfg.HighlightTemperature)),
			evaluation.WithMaxOutputTokens(cfg.HighlightMaxTokens),
		),
	)

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	}

	storeOpts := []repository.Option{
		repository.WithMaxListLimit(cfg.MaxListLimit),
		repository.WithLogger(log.Named("store")),
	}
	if cfg.PostgresDSN != "" {
		store, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN, storeOpts...)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, app.WithStore(store))
		log.Info(ctx, "using postgres store")
	} else {
		opts = append(opts, app.WithStore(repository.NewMemoryStore(storeOpts...)))
		log.Info(ctx, "using in-memory store")
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, cleanup, err
		}
		client := redis.NewClient(redisOpts)
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, cleanup, err
		}
		pub := publisher.NewRedisPublisher(client,
			publisher.WithStream(cfg.RedisStream),
			publisher.WithLogger(log.Named("publisher")),
		)
		opts = append(opts, app.WithPublisher(pub))
		log.Info(ctx, "publishing completed analyses", logger.String("stream", pub.Stream()))
	}

	return app.New(orchestrator, opts...), cleanup, nil
}

// buildInference returns nil when no API key is configured so the pipeline
// reports the service as unavailable instead of failing at startup.
func buildInference(cfg *config.Config, log logger.Logger) (vision.Service, error) {
	if cfg.InferenceAPIKey == "" {
		log.Warn(context.Background(), "inference_api_key not set; analyses will fail as service unavailable")
		return nil, nil
	}
	client, err := inference.NewOpenAIClient(cfg.InferenceAPIKey,
		inference.WithBaseURL(cfg.InferenceBaseURL),
		inference.WithModel(cfg.InferenceModel),
		inference.WithImageDetail(cfg.InferenceImageDetail),
		inference.WithTimeout(cfg.InferenceTimeout()),
		inference.WithLogger(log.Named("inference")),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newHandler builds the HTTP router: business API plus the docs routes.
func newHandler(cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	server := api.NewServer(svc,
		api.WithCORSOrigins(cfg.Origins()),
		api.WithRequestTimeout(cfg.RequestTimeout()),
		api.WithLogger(log.Named("http")),
	)
	r := server.Router()
	swagger.Register(r)
	return r
}
