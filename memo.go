package almanac

import (
	"context"
	"sync"
)

// Memo caches the results of a pure computation by key for its own lifetime.
//
// There is no expiry and no size bound. Concurrent first calls for the same
// key are not deduplicated: each runs the computation, and the first result
// stored is the one every caller gets back. Failed computations are never
// stored, so the next call retries.
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
}

// Do returns the cached value for key, computing it with fn on a miss.
func (m *Memo[K, V]) Do(ctx context.Context, key K, fn func(context.Context) (V, error)) (V, error) {
	if v, ok := m.lookup(key); ok {
		return v, nil
	}
	v, err := fn(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	return m.store(key, v), nil
}

func (m *Memo[K, V]) lookup(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *Memo[K, V]) store(key K, v V) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[K]V)
	}
	if existing, ok := m.entries[key]; ok {
		return existing
	}
	m.entries[key] = v
	return v
}

// Len returns the number of cached keys.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Reset drops every cached value.
func (m *Memo[K, V]) Reset() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}
