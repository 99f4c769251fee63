package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	runs   map[string]store.Run
	groups map[string][]store.GroupRecord
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:   make(map[string]store.Run),
		groups: make(map[string][]store.GroupRecord),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// RecordRun inserts or replaces a run, keyed by ID.
func (s *Store) RecordRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run id is required", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID > runs[j].ID
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// RecordGroup appends a group record.
func (s *Store) RecordGroup(ctx context.Context, g store.GroupRecord) error {
	if g.RunID == "" || g.GroupID == "" {
		return fmt.Errorf("%w: run id and group id are required", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.RunID] = append(s.groups[g.RunID], copyGroup(g))
	return nil
}

// GroupsForRun returns the groups of a run in insertion order.
func (s *Store) GroupsForRun(ctx context.Context, runID string) ([]store.GroupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.groups[runID]
	out := make([]store.GroupRecord, len(src))
	for i, g := range src {
		out[i] = copyGroup(g)
	}
	return out, nil
}

func copyGroup(g store.GroupRecord) store.GroupRecord {
	g.Links = append([]string(nil), g.Links...)
	return g
}
