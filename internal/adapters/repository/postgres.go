package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS analyses (
		id                    TEXT PRIMARY KEY,
		owner_id              TEXT NOT NULL,
		mode                  TEXT NOT NULL,
		clip_locator          TEXT NOT NULL,
		clip_duration_seconds DOUBLE PRECISION NOT NULL,
		subject               JSONB NOT NULL,
		evaluation            JSONB NOT NULL,
		highlights            JSONB NOT NULL,
		created_at            TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_owner_created ON analyses (owner_id, created_at DESC)`,
}

const selectColumns = `id, owner_id, mode, clip_locator, clip_duration_seconds, subject, evaluation, highlights, created_at`

// PostgresStore keeps analyses in PostgreSQL with the evaluation and
// highlights as JSONB documents.
type PostgresStore struct {
	storeConfig
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{storeConfig: newStoreConfig(opts), pool: pool}, nil
}

// EnsureSchema creates the analyses table and its owner/recency index.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.logger.Info(ctx, "postgres schema ready")
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, a StoredAnalysis) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	r, err := encodeRow(a)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return err
	}

	_, err = s.pool.Exec(ctx, `INSERT INTO analyses (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Owner, r.Mode, r.Locator, r.Duration, r.Subject, r.Evaluation, r.Highlights, r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		metrics.RecordErrorByComponent("repository", "write_failed")
		return fmt.Errorf("insert analysis: %w", err)
	}

	s.refreshCount(ctx)
	s.logger.Debug(ctx, "analysis saved", logger.String("analysis_id", r.ID), logger.String("owner", r.Owner))
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, owner, id string) (StoredAnalysis, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM analyses WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return StoredAnalysis{}, fmt.Errorf("query analysis: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanRow)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return StoredAnalysis{}, ErrNotFound
	}
	if err != nil {
		return StoredAnalysis{}, fmt.Errorf("scan analysis: %w", err)
	}
	return decodeRow(r)
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, owner string, limit int) ([]StoredAnalysis, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := s.checkLimit(limit); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM analyses
		WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	collected, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, fmt.Errorf("scan analyses: %w", err)
	}

	out := make([]StoredAnalysis, 0, len(collected))
	for _, r := range collected {
		a, err := decodeRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, owner, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	s.refreshCount(ctx)
	return nil
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) refreshCount(ctx context.Context) {
	n, err := s.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "count analyses failed", logger.Error(err))
		return
	}
	metrics.UpdateStoredAnalyses(n)
}

func scanRow(cr pgx.CollectableRow) (row, error) {
	var r row
	err := cr.Scan(&r.ID, &r.Owner, &r.Mode, &r.Locator, &r.Duration, &r.Subject, &r.Evaluation, &r.Highlights, &r.CreatedAt)
	return r, err
}
