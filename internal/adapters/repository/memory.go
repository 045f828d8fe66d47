package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/clipscout/pkg/logger"
	"github.com/okian/clipscout/pkg/metrics"
)

// MemoryStore keeps analyses in process. Records are stored in their encoded
// form, so reads go through the same JSON round trip as the database store.
type MemoryStore struct {
	storeConfig

	mu      sync.RWMutex
	rows    map[string]row
	byOwner map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		storeConfig: newStoreConfig(opts),
		rows:        make(map[string]row),
		byOwner:     make(map[string]map[string]struct{}),
	}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, a StoredAnalysis) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	r, err := encodeRow(a)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return err
	}

	s.mu.Lock()
	if _, exists := s.rows[r.ID]; exists {
		s.mu.Unlock()
		return ErrDuplicate
	}
	s.rows[r.ID] = r
	ids, ok := s.byOwner[r.Owner]
	if !ok {
		ids = make(map[string]struct{})
		s.byOwner[r.Owner] = ids
	}
	ids[r.ID] = struct{}{}
	total := len(s.rows)
	s.mu.Unlock()

	metrics.UpdateStoredAnalyses(total)
	s.logger.Debug(ctx, "analysis saved", logger.String("analysis_id", r.ID), logger.String("owner", r.Owner))
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, owner, id string) (StoredAnalysis, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	r, ok := s.rows[id]
	s.mu.RUnlock()
	if !ok || r.Owner != owner {
		metrics.RecordErrorByComponent("repository", "not_found")
		return StoredAnalysis{}, ErrNotFound
	}
	return decodeRow(r)
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, owner string, limit int) ([]StoredAnalysis, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := s.checkLimit(limit); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, err
	}

	s.mu.RLock()
	rows := make([]row, 0, len(s.byOwner[owner]))
	for id := range s.byOwner[owner] {
		rows = append(rows, s.rows[id])
	}
	s.mu.RUnlock()

	sortNewestFirst(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]StoredAnalysis, 0, len(rows))
	for _, r := range rows {
		a, err := decodeRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	r, ok := s.rows[id]
	if !ok || r.Owner != owner {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	delete(s.rows, id)
	delete(s.byOwner[owner], id)
	if len(s.byOwner[owner]) == 0 {
		delete(s.byOwner, owner)
	}
	total := len(s.rows)
	s.mu.Unlock()

	metrics.UpdateStoredAnalyses(total)
	s.logger.Debug(ctx, "analysis deleted", logger.String("analysis_id", id), logger.String("owner", owner))
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// sortNewestFirst orders by creation time desc, then id desc for a stable order.
func sortNewestFirst(rows []row) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
}
