package service

import (
	"sync"
	"time"

	"github.com/okian/clipscout/internal/domain/model"
)

const defaultJobHistory = 10_000

// jobTable keeps the latest status of recent jobs. Once limit is exceeded the
// oldest job is forgotten, whatever its state.
type jobTable struct {
	mu     sync.RWMutex
	limit  int
	order  []string
	owners map[string]string
	byID   map[string]model.JobStatus
}

func newJobTable() *jobTable {
	return &jobTable{
		limit:  defaultJobHistory,
		owners: make(map[string]string),
		byID:   make(map[string]model.JobStatus),
	}
}

func (t *jobTable) put(owner string, st model.JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byID[st.ID]; !ok {
		t.order = append(t.order, st.ID)
		t.owners[st.ID] = owner
	}
	t.byID[st.ID] = st

	for len(t.order) > t.limit {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.byID, oldest)
		delete(t.owners, oldest)
	}
}

// update changes the status of a known job. Forgotten jobs are ignored.
func (t *jobTable) update(id string, fn func(*model.JobStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.byID[id]
	if !ok {
		return
	}
	fn(&st)
	st.UpdatedAt = time.Now().UTC()
	t.byID[id] = st
}

func (t *jobTable) get(owner, id string) (model.JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.byID[id]
	if !ok || t.owners[id] != owner {
		return model.JobStatus{}, false
	}
	return st, true
}

func (t *jobTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byID[id]; !ok {
		return
	}
	delete(t.byID, id)
	delete(t.owners, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// counts returns the number of known jobs per state.
func (t *jobTable) counts() map[model.JobState]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[model.JobState]int, 4)
	for _, st := range t.byID {
		out[st.State]++
	}
	return out
}
