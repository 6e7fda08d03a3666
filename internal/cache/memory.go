package cache

import (
	"context"
	"sync"
	"time"
)

type memItem struct {
	entry   *Entry
	expires time.Time
}

// MemoryStore is an in-process TTL cache. Expired entries are invisible to
// Get and removed by Prune.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memItem
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a memory store; ttl <= 0 selects DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{items: make(map[string]memItem), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[key]
	if !ok || !m.now().Before(it.expires) {
		return nil, false
	}
	return it.entry, true
}

func (m *MemoryStore) Set(_ context.Context, key string, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memItem{entry: e, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Prune(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for k, it := range m.items {
		if !now.Before(it.expires) {
			delete(m.items, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryStore) Close() error { return nil }
