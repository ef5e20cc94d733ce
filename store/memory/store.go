// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kiket-dev/dispatch"
	"github.com/kiket-dev/dispatch/id"
	"github.com/kiket-dev/dispatch/store"
)

// compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	records map[string]*store.Record // keyed by ID string
	order   []string                 // insertion order of IDs

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]*store.Record),
	}
}

// SaveRecord persists one invocation record.
func (s *Store) SaveRecord(_ context.Context, rec *store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dispatch.ErrStoreClosed
	}
	key := rec.ID.String()
	if _, exists := s.records[key]; !exists {
		s.order = append(s.order, key)
	}
	s.records[key] = rec
	return nil
}

// GetRecord returns a record by ID.
func (s *Store) GetRecord(_ context.Context, recID id.ID) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, dispatch.ErrStoreClosed
	}
	rec, ok := s.records[recID.String()]
	if !ok {
		return nil, dispatch.ErrRecordNotFound
	}
	return rec, nil
}

// ListRecords returns records most recent first.
func (s *Store) ListRecords(_ context.Context, opts store.ListOpts) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, dispatch.ErrStoreClosed
	}

	var out []*store.Record
	for _, key := range s.order {
		rec := s.records[key]
		if opts.Event != "" && rec.Event != opts.Event {
			continue
		}
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}
		out = append(out, rec)
	}

	// Most recent first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// CountByStatus returns the number of stored records with the status.
func (s *Store) CountByStatus(_ context.Context, status string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, dispatch.ErrStoreClosed
	}
	n := 0
	for _, rec := range s.records {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return dispatch.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
