// Package cache defines the best-effort key/value store used by metadata enrichment.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores opaque values with a time-to-live.
//
// Implementations must be safe for concurrent use. Concurrent writes to one key are
// last-write-wins. Callers treat any error as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Clock returns the current time.
type Clock func() time.Time

type item struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process [Cache] with lazy expiry.
type Memory struct {
	mu       sync.RWMutex
	items    map[string]item
	now      Clock
	maxItems int
}

// MemoryOption configures a [Memory] cache.
type MemoryOption func(*Memory)

// WithClock injects the time source used for expiry.
func WithClock(c Clock) MemoryOption {
	return func(m *Memory) { m.now = c }
}

// WithMaxItems bounds the number of stored keys. Expired keys are evicted first,
// then the entry closest to expiry.
func WithMaxItems(n int) MemoryOption {
	return func(m *Memory) { m.maxItems = n }
}

// NewMemory returns an empty in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{items: map[string]item{}, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(it.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expiresAt.Equal(it.expiresAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && m.maxItems > 0 && len(m.items) >= m.maxItems {
		m.evictLocked()
	}
	m.items[key] = item{value: stored, expiresAt: m.now().Add(ttl)}
	return nil
}

// Len returns the number of stored keys, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) evictLocked() {
	now := m.now()
	var (
		victim string
		soon   time.Time
	)
	for k, it := range m.items {
		if !now.Before(it.expiresAt) {
			delete(m.items, k)
			return
		}
		if victim == "" || it.expiresAt.Before(soon) {
			victim, soon = k, it.expiresAt
		}
	}
	delete(m.items, victim)
}

// Noop is a [Cache] that stores nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
