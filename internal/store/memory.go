package store

import (
	"context"
	"sync"

	"github.com/Skufu/glucocheck/internal/assessment"
)

// MemoryStore keeps everything in process. Used by tests and HISTORY_DRIVER=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	history  map[string][]assessment.Record
	prefs    map[string]map[string]string
}

func NewMemory(capacityN int) *MemoryStore {
	return &MemoryStore{
		capacity: capacity(capacityN),
		history:  make(map[string][]assessment.Record),
		prefs:    make(map[string]map[string]string),
	}
}

func (m *MemoryStore) List(_ context.Context, owner string) ([]assessment.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRecords(m.history[owner]), nil
}

func (m *MemoryStore) Append(_ context.Context, owner string, rec assessment.Record) ([]assessment.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := assessment.AppendToHistory(m.history[owner], rec, m.capacity)
	m.history[owner] = next
	return cloneRecords(next), nil
}

func (m *MemoryStore) Clear(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, owner)
	return nil
}

func (m *MemoryStore) GetPreference(_ context.Context, owner, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.prefs[owner][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) SetPreference(_ context.Context, owner, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs[owner] == nil {
		m.prefs[owner] = make(map[string]string)
	}
	m.prefs[owner][key] = value
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func cloneRecords(in []assessment.Record) []assessment.Record {
	out := make([]assessment.Record, len(in))
	copy(out, in)
	return out
}
