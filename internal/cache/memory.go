package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

// Memory is an in-process cache bounded to capacity entries. When full, the
// oldest entry is evicted. A capacity of 1 holds a single slot.
type Memory[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]entry[V]
	capacity int
	now      func() time.Time
}

// NewMemory creates a Memory cache. A capacity below 1 means unbounded.
func NewMemory[K comparable, V any](capacity int) *Memory[K, V] {
	return &Memory[K, V]{
		entries:  make(map[K]entry[V]),
		capacity: capacity,
		now:      time.Now,
	}
}

// Get returns the value while now - storedAt < ttl.
func (m *Memory[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	e, ok := m.entries[key]
	if !ok {
		return zero, false, nil
	}
	if m.now().Sub(e.storedAt) >= e.ttl {
		delete(m.entries, key)
		return zero, false, nil
	}
	return e.value, true, nil
}

func (m *Memory[K, V]) SetWithTTL(_ context.Context, key K, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && m.capacity > 0 && len(m.entries) >= m.capacity {
		m.evictOldest()
	}
	m.entries[key] = entry[V]{value: value, storedAt: m.now(), ttl: ttl}
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory[K, V]) evictOldest() {
	var oldestKey K
	var oldest time.Time
	first := true
	for k, e := range m.entries {
		if first || e.storedAt.Before(oldest) {
			oldestKey, oldest, first = k, e.storedAt, false
		}
	}
	if !first {
		delete(m.entries, oldestKey)
	}
}
