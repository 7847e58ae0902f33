package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryHistoryStore keeps records in process memory. It backs tests and
// the --no-store mode of the CLI.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

// NewMemoryHistoryStore creates an empty in-memory store.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{records: make(map[uuid.UUID]Record)}
}

// Save stores rec. Saving an existing ID replaces it.
func (s *MemoryHistoryStore) Save(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

// Get returns the record with id or ErrNotFound.
func (s *MemoryHistoryStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// List returns matching records, newest first.
func (s *MemoryHistoryStore) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if opts.SubjectName != "" && !strings.EqualFold(rec.SubjectName, opts.SubjectName) {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if off := opts.offset(); off < len(out) {
		out = out[off:]
	} else {
		out = out[:0]
	}
	if n := opts.limit(); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryHistoryStore) Close() error {
	return nil
}
