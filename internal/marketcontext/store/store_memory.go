package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"finsight/internal/marketcontext/models"
	"finsight/pkg/platform/sentinel"
)

// InMemoryStore keeps cache entries in process. Entries stay readable for
// retention after they expire so callers can fall back to stale text.
type InMemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]*models.Entry
	retention time.Duration
	now       func() time.Time
}

// NewInMemoryStore creates an in-memory store with the given stale retention.
func NewInMemoryStore(retention time.Duration) *InMemoryStore {
	return &InMemoryStore{
		entries:   make(map[string]*models.Entry),
		retention: retention,
		now:       time.Now,
	}
}

// Get returns the entry for key, or sentinel.ErrNotFound once it is past retention.
func (s *InMemoryStore) Get(_ context.Context, key string) (*models.Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if s.retention >= 0 && s.now().After(e.ExpiresAt.Add(s.retention)) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// Put stores entry under entry.Key, replacing any previous entry.
func (s *InMemoryStore) Put(_ context.Context, entry *models.Entry) error {
	if entry == nil {
		return nil
	}
	cp := *entry
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = &cp
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *InMemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Keys returns all stored keys in sorted order.
func (s *InMemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
