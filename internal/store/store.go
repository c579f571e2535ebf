// Package store persists runs per user and keeps a bounded recency index for history listing.
package store

import (
	"context"
	"errors"

	"github.com/jonathan/resume-pivot/internal/types"
)

// MaxHistory caps the recency index
const MaxHistory = 20

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// Store is one user's run ledger
type Store interface {
	// CreateRun creates a run or, when id already exists, merges init into it
	CreateRun(ctx context.Context, id string, init types.RunPatch) (*types.Run, error)
	// PatchRun applies a partial update. Phases are deep-merged.
	PatchRun(ctx context.Context, id string, patch types.RunPatch) (*types.Run, error)
	// GetRun returns a run by id
	GetRun(ctx context.Context, id string) (*types.Run, error)
	// ListRecent returns up to limit summaries, most recently updated first
	ListRecent(ctx context.Context, limit int) ([]types.RunSummary, error)
}

// Registry hands out the Store of a user
type Registry interface {
	ForUser(ctx context.Context, userID string) (Store, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxHistory {
		return MaxHistory
	}
	return limit
}
