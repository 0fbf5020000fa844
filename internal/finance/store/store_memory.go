package store

import (
	"context"
	"sort"
	"sync"

	"finsight/internal/finance/models"
	"finsight/pkg/platform/sentinel"
)

// ErrNotFound is returned when a user has no linked data.
var ErrNotFound = sentinel.ErrNotFound

type userData struct {
	snapshot models.Snapshot
	profile  *models.Profile
}

// InMemoryStore holds financial records in memory. A store built with
// NewDemoStore serves the same dataset to every user.
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[string]*userData
	shared *userData
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*userData)}
}

// NewDemoStore returns a store serving the demo dataset for any user ID.
func NewDemoStore() *InMemoryStore {
	s := NewInMemoryStore()
	profile := DemoProfile()
	s.shared = &userData{snapshot: DemoSnapshot(), profile: &profile}
	return s
}

// Put replaces the records of userID. Transactions are re-sorted newest first.
func (s *InMemoryStore) Put(userID string, snapshot models.Snapshot, profile *models.Profile) {
	snapshot.Transactions = sortedNewestFirst(snapshot.Transactions)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = &userData{snapshot: snapshot, profile: profile}
}

// Snapshot returns the user's records with at most limit transactions.
// A non-positive limit returns every transaction.
func (s *InMemoryStore) Snapshot(_ context.Context, userID string, limit int) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.lookup(userID)
	if !ok {
		return nil, ErrNotFound
	}
	out := models.Snapshot{
		Accounts:     append([]models.Account(nil), data.snapshot.Accounts...),
		Transactions: append([]models.Transaction(nil), data.snapshot.Transactions...),
		Holdings:     append([]models.Holding(nil), data.snapshot.Holdings...),
		Liabilities:  append([]models.Liability(nil), data.snapshot.Liabilities...),
	}
	if limit > 0 && len(out.Transactions) > limit {
		out.Transactions = out.Transactions[:limit]
	}
	return &out, nil
}

// Profile returns the user's planning profile, or ErrNotFound when none was saved.
func (s *InMemoryStore) Profile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.lookup(userID)
	if !ok || data.profile == nil {
		return nil, ErrNotFound
	}
	p := *data.profile
	p.Goals = append([]string(nil), p.Goals...)
	return &p, nil
}

func (s *InMemoryStore) lookup(userID string) (*userData, bool) {
	if s.shared != nil {
		return s.shared, true
	}
	data, ok := s.users[userID]
	return data, ok
}

func sortedNewestFirst(txns []models.Transaction) []models.Transaction {
	out := append([]models.Transaction(nil), txns...)
	sort.SliceStable(out, func(i, j int) bool {
		return transactionTime(out[i]) > transactionTime(out[j])
	})
	return out
}

// transactionTime yields a sortable key; the raw date is YYYY-MM-DD for
// well-formed records.
func transactionTime(t models.Transaction) string {
	if t.Datetime != nil {
		return t.Datetime.UTC().Format("2006-01-02T15:04:05")
	}
	return t.Date
}
