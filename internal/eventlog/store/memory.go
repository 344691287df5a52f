package store

import (
	"context"
	"sync"

	"registrar/internal/eventlog/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// InMemoryStore is an append-only slice of events indexed by sequence-1.
//
// Appends made inside a transaction reserve their sequence numbers
// immediately but stay invisible to readers until the transaction commits.
// The append lock is held from a transaction's first append until it
// finishes, so a rollback can hand its sequence numbers back and the
// published log never has gaps.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []*models.Event

	appendMu sync.Mutex
	holderMu sync.Mutex
	holder   any
	next     uint64
	pending  []*models.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(ctx context.Context, e *models.Event) (uint64, error) {
	scope := tx.Scope(ctx)
	if scope == nil {
		s.appendMu.Lock()
		defer s.appendMu.Unlock()
		s.next++
		e.Sequence = s.next
		s.mu.Lock()
		s.events = append(s.events, e.Clone())
		s.mu.Unlock()
		return e.Sequence, nil
	}

	if !s.heldBy(scope) {
		s.appendMu.Lock()
		s.setHolder(scope)
		base := s.next
		tx.RecordUndo(ctx, func() {
			s.pending = nil
			s.next = base
			s.release()
		})
		tx.OnCommit(ctx, func() {
			s.mu.Lock()
			s.events = append(s.events, s.pending...)
			s.mu.Unlock()
			s.pending = nil
			s.release()
		})
	}
	s.next++
	e.Sequence = s.next
	s.pending = append(s.pending, e.Clone())
	return e.Sequence, nil
}

func (s *InMemoryStore) heldBy(scope any) bool {
	s.holderMu.Lock()
	defer s.holderMu.Unlock()
	return s.holder == scope
}

func (s *InMemoryStore) setHolder(scope any) {
	s.holderMu.Lock()
	s.holder = scope
	s.holderMu.Unlock()
}

func (s *InMemoryStore) release() {
	s.setHolder(nil)
	s.appendMu.Unlock()
}

// HighWater returns the latest published sequence.
func (s *InMemoryStore) HighWater(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.events)), nil
}

// Page returns up to limit matching events with After < Sequence <= upTo in
// ascending order.
func (s *InMemoryStore) Page(_ context.Context, f models.Filter, upTo uint64, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if upTo > uint64(len(s.events)) {
		upTo = uint64(len(s.events))
	}
	out := make([]*models.Event, 0, min(limit, 64))
	for i := f.After; i < upTo && len(out) < limit; i++ {
		if e := s.events[i]; f.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// Recent returns up to n matching events, newest first.
func (s *InMemoryStore) Recent(_ context.Context, f models.Filter, n int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, min(n, 64))
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		if e := s.events[i]; f.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) Get(_ context.Context, seq uint64) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if seq == 0 || seq > uint64(len(s.events)) {
		return nil, sentinel.ErrNotFound
	}
	return s.events[seq-1].Clone(), nil
}

// SetStatus moves a pending event to a terminal status.
func (s *InMemoryStore) SetStatus(_ context.Context, seq uint64, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == 0 || seq > uint64(len(s.events)) {
		return sentinel.ErrNotFound
	}
	e := s.events[seq-1]
	if e.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	e.Status = status
	return nil
}
