package ledger

import (
	"sort"
	"sync"
)

// MemoryStore keeps entries in memory.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]map[int]Entry // runID -> epoch -> entry
	closed bool
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]map[int]Entry)}
}

// Append implements Store.
func (m *MemoryStore) Append(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if m.runs[e.RunID] == nil {
		m.runs[e.RunID] = make(map[int]Entry)
	}
	m.runs[e.RunID][e.Epoch] = cloneEntry(e)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(runID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	run := m.runs[runID]
	entries := make([]Entry, 0, len(run))
	for _, e := range run {
		entries = append(entries, cloneEntry(e))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Epoch < entries[j].Epoch
	})
	return entries, nil
}

// Last implements Store.
func (m *MemoryStore) Last(runID string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Entry{}, ErrStoreClosed
	}

	run := m.runs[runID]
	if len(run) == 0 {
		return Entry{}, ErrNotFound
	}

	var last Entry
	first := true
	for _, e := range run {
		if first || e.Epoch > last.Epoch {
			last = e
			first = false
		}
	}
	return cloneEntry(last), nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.runs, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	return nil
}

// cloneEntry copies the metrics map so callers cannot mutate stored state.
func cloneEntry(e Entry) Entry {
	if e.Metrics != nil {
		metrics := make(map[string]float64, len(e.Metrics))
		for k, v := range e.Metrics {
			metrics[k] = v
		}
		e.Metrics = metrics
	}
	return e
}
