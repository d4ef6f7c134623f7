package cache

import (
	"context"
	"sync"
	"time"
)

// MemorySeenStore is an in-process set of processed call ids with optional
// expiration. History is lost on restart; the store-level unique constraint
// remains the hard backstop against double-processing.
type MemorySeenStore struct {
	mu    sync.Mutex
	items map[string]time.Time
	ttl   time.Duration
}

// NewMemorySeenStore creates an in-memory seen-id store. A zero ttl keeps
// ids for the lifetime of the process.
func NewMemorySeenStore(ttl time.Duration) *MemorySeenStore {
	store := &MemorySeenStore{
		items: make(map[string]time.Time),
		ttl:   ttl,
	}
	if ttl > 0 {
		go store.cleanupExpired()
	}
	return store
}

// SetNX marks the id as seen, returning true when it was not seen before.
// Check and mark happen under one lock acquisition.
func (s *MemorySeenStore) SetNX(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, exists := s.items[id]; exists {
		if expiry.IsZero() || time.Now().Before(expiry) {
			return false, nil
		}
	}

	var expiry time.Time
	if s.ttl > 0 {
		expiry = time.Now().Add(s.ttl)
	}
	s.items[id] = expiry
	return true, nil
}

// Delete releases the id so a later SetNX succeeds again
func (s *MemorySeenStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// cleanupExpired periodically removes expired entries
func (s *MemorySeenStore) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for id, expiry := range s.items {
			if !expiry.IsZero() && now.After(expiry) {
				delete(s.items, id)
			}
		}
		s.mu.Unlock()
	}
}
