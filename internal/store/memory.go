package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no value is cached for a key.
	ErrNotFound = errors.New("no cached value for key")
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// MemoryCache is a concurrency-safe in-memory key/value cache.
// Entries are never invalidated except by the configured limits.
type MemoryCache[V any] struct {
	mu sync.RWMutex

	data map[string]entry[V]
	// insertion order, oldest first
	order []string

	// retention configuration
	maxEntries int           // max number of keys (0 = unlimited)
	maxAge     time.Duration // max age of an entry (0 = unlimited)

	now func() time.Time
}

// NewMemoryCache creates a new MemoryCache with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryCache[V any](maxEntries int, maxAge time.Duration) *MemoryCache[V] {
	return &MemoryCache[V]{
		data:       make(map[string]entry[V]),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Set stores value under key and enforces retention.
func (s *MemoryCache[V]) Set(_ context.Context, key string, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		s.order = append(s.order, key)
	}
	s.data[key] = entry[V]{value: value, storedAt: s.now()}

	// Enforce retention by count.
	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		over := len(s.order) - s.maxEntries
		for _, k := range s.order[:over] {
			delete(s.data, k)
		}
		s.order = s.order[over:]
	}
	return nil
}

// Get returns the value stored under key.
func (s *MemoryCache[V]) Get(_ context.Context, key string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	e, ok := s.data[key]
	if !ok {
		return zero, ErrNotFound
	}
	if s.maxAge > 0 && s.now().Sub(e.storedAt) > s.maxAge {
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Len returns the number of stored keys, expired ones included.
func (s *MemoryCache[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
