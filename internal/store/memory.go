package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/resume-pivot/internal/types"
)

// MemoryStore is an in-process Store. Runs are kept for the life of the process;
// only the recency index is bounded.
type MemoryStore struct {
	mu     sync.Mutex
	userID string
	runs   map[string]*types.Run
	// index is ordered most recently updated first
	index []types.RunSummary
	now   func() time.Time
}

// NewMemoryStore creates an empty store for one user
func NewMemoryStore(userID string) *MemoryStore {
	return &MemoryStore{
		userID: userID,
		runs:   make(map[string]*types.Run),
		now:    time.Now,
	}
}

// CreateRun implements Store
func (s *MemoryStore) CreateRun(_ context.Context, id string, init types.RunPatch) (*types.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	run, ok := s.runs[id]
	if !ok {
		run = newRun(id, s.userID, now)
	}
	next := cloneRun(run)
	if err := applyPatch(next, init, now); err != nil {
		return nil, err
	}
	s.runs[id] = next
	s.touch(next.Summary())
	return cloneRun(next), nil
}

// PatchRun implements Store
func (s *MemoryStore) PatchRun(_ context.Context, id string, patch types.RunPatch) (*types.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	run, ok := s.runs[id]
	if !ok {
		if !patch.CanSynthesize() {
			return nil, ErrNotFound
		}
		run = newRun(id, s.userID, now)
	}
	next := cloneRun(run)
	if err := applyPatch(next, patch, now); err != nil {
		return nil, err
	}
	s.runs[id] = next
	s.touch(next.Summary())
	return cloneRun(next), nil
}

// GetRun implements Store
func (s *MemoryStore) GetRun(_ context.Context, id string) (*types.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRun(run), nil
}

// ListRecent implements Store
func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]types.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit = clampLimit(limit)
	if limit > len(s.index) {
		limit = len(s.index)
	}
	out := make([]types.RunSummary, limit)
	copy(out, s.index[:limit])
	return out, nil
}

// touch moves a summary to the front of the index, dropping its previous entry and
// evicting the oldest entries beyond MaxHistory.
func (s *MemoryStore) touch(summary types.RunSummary) {
	index := make([]types.RunSummary, 0, len(s.index)+1)
	index = append(index, summary)
	for _, entry := range s.index {
		if entry.ID != summary.ID {
			index = append(index, entry)
		}
	}
	if len(index) > MaxHistory {
		index = index[:MaxHistory]
	}
	s.index = index
}

// MemoryRegistry keeps one MemoryStore per user
type MemoryRegistry struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{stores: make(map[string]*MemoryStore)}
}

// ForUser implements Registry
func (r *MemoryRegistry) ForUser(_ context.Context, userID string) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[userID]
	if !ok {
		s = NewMemoryStore(userID)
		r.stores[userID] = s
	}
	return s, nil
}
