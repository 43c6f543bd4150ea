// Package memory provides an in-memory cache store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/feedpager/pkg/cachestore"
)

type entry struct {
	value     []byte
	updatedAt time.Time
}

// Store is an in-memory implementation of cachestore.Store. Its contents
// are lost when the process exits.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	closed  bool
	now     func() time.Time
}

// New creates a new in-memory cache store.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns a copy of the stored entry.
func (s *Store) Get(ctx context.Context, key string) (cachestore.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return cachestore.Entry{}, false, cachestore.ErrStoreClosed
	}

	e, ok := s.entries[key]
	if !ok {
		return cachestore.Entry{}, false, nil
	}

	// Return a copy to prevent mutation
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return cachestore.Entry{Key: key, Value: value, UpdatedAt: e.updatedAt}, true, nil
}

// Set stores a copy of value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := cachestore.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cachestore.ErrStoreClosed
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	s.entries[key] = entry{value: copied, updatedAt: s.now()}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cachestore.ErrStoreClosed
	}

	delete(s.entries, key)
	return nil
}

// DeleteByPrefix removes all entries with the given prefix.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, cachestore.ErrStoreClosed
	}

	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// List describes all entries with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]cachestore.EntryInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cachestore.ErrStoreClosed
	}

	infos := make([]cachestore.EntryInfo, 0)
	for key, e := range s.entries {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, cachestore.EntryInfo{
				Key:       key,
				Size:      int64(len(e.value)),
				UpdatedAt: e.updatedAt,
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Close marks the store as closed and drops its contents.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.entries = nil
	return nil
}

// HealthCheck verifies the store is operational.
func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return cachestore.ErrStoreClosed
	}
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ cachestore.Store = (*Store)(nil)
