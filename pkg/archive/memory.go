package archive

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/meshview/meshview/pkg/errors"
	"github.com/meshview/meshview/pkg/mesh"
)

// MemoryStore keeps records in memory. For CLI sessions and tests.
type MemoryStore struct {
	mu   sync.Mutex
	recs []Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save persists the record and returns its assigned ID.
func (s *MemoryStore) Save(ctx context.Context, rec Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.NodeCount = len(rec.Snapshot.Nodes)
	rec.LinkCount = len(rec.Snapshot.Links)
	s.recs = append(s.recs, rec)
	return rec.ID, nil
}

// Get loads one record by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, errors.New(errors.ErrCodeNotFound, "archived snapshot %s", id)
}

// List returns record metadata, newest first, without payloads.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.recs))
	for i := len(s.recs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		meta := s.recs[i]
		meta.Snapshot = mesh.Snapshot{}
		out = append(out, meta)
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return b.Taken.Compare(a.Taken)
	})
	return out, nil
}

// Prune removes the oldest records beyond keep.
func (s *MemoryStore) Prune(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 || len(s.recs) <= keep {
		return 0, nil
	}
	slices.SortStableFunc(s.recs, func(a, b Record) int {
		return a.Taken.Compare(b.Taken)
	})
	removed := len(s.recs) - keep
	s.recs = slices.Clone(s.recs[removed:])
	return removed, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
