package store

import (
	"context"
	"sync"

	"registrar/internal/resolver/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// InMemoryStore keeps resolution records plus a reverse index from address
// to the names currently resolving to it.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.Record
	reverse map[domain.Account]map[string]uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*models.Record),
		reverse: make(map[domain.Account]map[string]uint64),
	}
}

func (s *InMemoryStore) Get(_ context.Context, fullName string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[fullName]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) Put(ctx context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.records[r.FullName]
	s.replace(prev, r.Clone())
	tx.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		current := s.records[r.FullName]
		if existed {
			s.replace(current, prev)
		} else {
			s.unindex(current)
			delete(s.records, r.FullName)
		}
	})
	return nil
}

// ReverseLookup returns the name most recently pointed at addr.
func (s *InMemoryStore) ReverseLookup(_ context.Context, addr domain.Account) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best    string
		version uint64
	)
	for name, v := range s.reverse[addr] {
		if v > version {
			best, version = name, v
		}
	}
	if best == "" {
		return "", sentinel.ErrNotFound
	}
	return best, nil
}

// replace swaps old for next and keeps the reverse index in step. Caller holds mu.
func (s *InMemoryStore) replace(old, next *models.Record) {
	s.unindex(old)
	s.records[next.FullName] = next
	if next.ResolvedAddress != nil {
		names := s.reverse[*next.ResolvedAddress]
		if names == nil {
			names = make(map[string]uint64)
			s.reverse[*next.ResolvedAddress] = names
		}
		names[next.FullName] = next.AddressVersion
	}
}

func (s *InMemoryStore) unindex(r *models.Record) {
	if r == nil || r.ResolvedAddress == nil {
		return
	}
	names := s.reverse[*r.ResolvedAddress]
	delete(names, r.FullName)
	if len(names) == 0 {
		delete(s.reverse, *r.ResolvedAddress)
	}
}
