package sessionstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryItem
}

type memoryItem struct {
	snap    Snapshot
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, items: make(map[string]memoryItem)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if !item.expires.IsZero() && m.now().After(item.expires) {
		delete(m.items, id)
		return nil, nil
	}
	snap := item.snap
	snap.Moves = append([]string(nil), item.snap.Moves...)
	return &snap, nil
}

func (m *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	if err := snap.validate(); err != nil {
		return err
	}
	item := memoryItem{snap: *snap}
	item.snap.Moves = append([]string(nil), snap.Moves...)
	if m.ttl > 0 {
		item.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.items[snap.ID] = item
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
