package store

import (
	"context"
	"sync"

	"registrar/internal/marketplace/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// InMemoryStore keeps the latest listing per name.
type InMemoryStore struct {
	mu       sync.RWMutex
	listings map[string]*models.Listing
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{listings: make(map[string]*models.Listing)}
}

func (s *InMemoryStore) Get(_ context.Context, fullName string) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[fullName]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *InMemoryStore) Save(ctx context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.listings[l.FullName]
	s.listings[l.FullName] = l.Clone()
	tx.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.listings[l.FullName] = prev
		} else {
			delete(s.listings, l.FullName)
		}
	})
	return nil
}

// ListActive returns one page of active listings matching f, ordered by
// f.Sort. f must already be normalized.
func (s *InMemoryStore) ListActive(_ context.Context, f models.Filter) ([]*models.Listing, error) {
	s.mu.RLock()
	var out []*models.Listing
	for _, l := range s.listings {
		if f.Matches(l) {
			out = append(out, l.Clone())
		}
	}
	s.mu.RUnlock()

	models.SortListings(out, f.Sort)
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}
