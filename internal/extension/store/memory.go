package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"registrar/internal/extension/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// InMemoryStore keeps the extension catalog in a map.
type InMemoryStore struct {
	mu         sync.RWMutex
	extensions map[string]*models.Extension
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{extensions: make(map[string]*models.Extension)}
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Extension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Extension, 0, len(s.extensions))
	for _, ext := range s.extensions {
		out = append(out, ext.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Extension) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *InMemoryStore) Get(_ context.Context, name string) (*models.Extension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ext, ok := s.extensions[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return ext.Clone(), nil
}

// Save inserts or updates ext. Mint counters are owned by RecordMint: an
// existing entry keeps its stored counters.
func (s *InMemoryStore) Save(_ context.Context, ext *models.Extension) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := ext.Clone()
	if current, ok := s.extensions[ext.Name]; ok {
		saved.TotalMinted = current.TotalMinted
		saved.TotalRevenue = current.TotalRevenue
	}
	s.extensions[ext.Name] = saved
	return nil
}

// RecordMint bumps the mint counters. Inside a transaction the change is
// undone if the transaction fails.
func (s *InMemoryStore) RecordMint(ctx context.Context, name string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ext, ok := s.extensions[name]
	if !ok {
		return sentinel.ErrNotFound
	}
	ext.TotalMinted++
	ext.TotalRevenue = ext.TotalRevenue.Add(amount)
	tx.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ext, ok := s.extensions[name]; ok {
			ext.TotalMinted--
			ext.TotalRevenue = ext.TotalRevenue.Sub(amount)
		}
	})
	return nil
}
