package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"registrar/internal/registry/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// InMemoryStore keeps registry entries in a map. Writes made inside a
// transaction are undone if it rolls back.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*models.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*models.Entry)}
}

func (s *InMemoryStore) Get(_ context.Context, fullName string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[fullName]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.Clone(), nil
}

func (s *InMemoryStore) GetMany(_ context.Context, fullNames []string) (map[string]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.Entry, len(fullNames))
	for _, n := range fullNames {
		if e, ok := s.entries[n]; ok {
			out[n] = e.Clone()
		}
	}
	return out, nil
}

func (s *InMemoryStore) Save(ctx context.Context, e *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.entries[e.FullName]
	s.entries[e.FullName] = e.Clone()
	tx.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.entries[e.FullName] = prev
		} else {
			delete(s.entries, e.FullName)
		}
	})
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner domain.Account) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Entry
	for _, e := range s.entries {
		if e.Active && e.Owner == owner {
			out = append(out, e.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Entry) int { return strings.Compare(a.FullName, b.FullName) })
	return out, nil
}
