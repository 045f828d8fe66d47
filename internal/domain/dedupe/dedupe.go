// Package dedupe maps idempotency keys to the jobs they created.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper remembers which job an idempotency key produced so a repeated
// submission returns the same job instead of running the analysis again.
type Deduper interface {
	// Claim atomically binds key to jobID if key is new and returns
	// (jobID, false). If key was already claimed it returns the bound job
	// id and true, leaving the binding untouched.
	Claim(ctx context.Context, key, jobID string) (string, bool)

	// Release forgets key so it can be claimed again. Used when the job it
	// was bound to could not be enqueued.
	Release(ctx context.Context, key string)

	// Size returns the number of remembered keys.
	Size() int64
}

type entry struct {
	key   string
	jobID string
}

// inMemoryDeduper keeps keys in insertion order so bounded mode can evict
// the oldest binding in O(1).
type inMemoryDeduper struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	order   *list.List // front = newest
	maxSize int        // 0 or negative = UNBOUNDED
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.byKey = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok {
		return el.Value.(*entry).jobID, true
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.byKey[key] = d.order.PushFront(&entry{key: key, jobID: jobID})
	d.size.Store(int64(d.order.Len()))
	return jobID, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok {
		d.order.Remove(el)
		delete(d.byKey, key)
		d.size.Store(int64(d.order.Len()))
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.byKey, el.Value.(*entry).key)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
