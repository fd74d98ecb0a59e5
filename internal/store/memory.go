package store

import (
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/query"
)

// MemoryStore is a concurrency-safe in-memory store of query cache entries.
type MemoryStore struct {
	mu sync.RWMutex

	// key: cache key
	entries map[string]query.Entry

	// retention configuration
	maxAge time.Duration // 0 keeps entries for the life of the process
	now    func() time.Time
}

// NewMemoryStore creates a MemoryStore. If maxAge is <= 0 entries are never evicted.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]query.Entry),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Get returns the entry stored under key.
func (s *MemoryStore) Get(key string) (query.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return e, ok
}

// Save replaces the entry under its key.
func (s *MemoryStore) Save(entry query.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key] = entry
}

// Prune enforces retention by age. Entries that are loading, or whose key keep
// reports as still in use, are never dropped.
func (s *MemoryStore) Prune(keep func(key string) bool) int {
	if s.maxAge <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.maxAge)
	dropped := 0
	for key, e := range s.entries {
		if !e.UpdatedAt.Before(cutoff) || e.Status == query.StatusLoading {
			continue
		}
		if keep != nil && keep(key) {
			continue
		}
		delete(s.entries, key)
		dropped++
	}
	return dropped
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
