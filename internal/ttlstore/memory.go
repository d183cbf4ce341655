package ttlstore

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

type memoryStore[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[T]
}

// NewMemory builds an in-memory Store whose entries live for ttl after their
// first Put.
func NewMemory[T any](ttl time.Duration) Store[T] {
	return &memoryStore[T]{ttl: ttl, entries: make(map[string]entry[T])}
}

func (s *memoryStore[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || !time.Now().Before(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (s *memoryStore[T]) Put(id string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt := time.Now().Add(s.ttl)
	if existing, ok := s.entries[id]; ok {
		// Absolute TTL: keep the deadline set at creation.
		expiresAt = existing.expiresAt
	}
	s.entries[id] = entry[T]{value: value, expiresAt: expiresAt}
}

func (s *memoryStore[T]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

func (s *memoryStore[T]) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
