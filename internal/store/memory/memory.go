// Package memory is an in-process collection backend. Data is lost on
// restart; it is the default for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"fundledger/internal/core"
	"fundledger/internal/store"
)

var _ store.Collection = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	kind  core.Kind
	items []core.Transaction
}

// New returns an empty collection holding records of the given kind.
func New(kind core.Kind) *Store {
	return &Store{kind: kind}
}

// Append stores the record and returns a random id.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := store.CheckKind(t, s.kind); err != nil {
		return "", err
	}
	if err := t.Validate(); err != nil {
		return "", err
	}
	t.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return t.ID, nil
}

// QueryRecent returns the newest records first. Records with the same
// timestamp come back most recently appended first.
func (s *Store) QueryRecent(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, len(s.items))
	for i, t := range s.items {
		out[len(s.items)-1-i] = t
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
