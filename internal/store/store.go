package store

import (
	"context"

	"github.com/stridehq/stride/internal/types"
)

// LocalStore defines the interface contract for the on-device goals cache.
//
// Every write commits synchronously before returning; readers never observe
// a partial write. Failures surface as errors and abort the calling
// operation, they are never swallowed.
type LocalStore interface {
	// FetchAll returns all goals for the owner, most recently updated first.
	FetchAll(ctx context.Context, ownerID string) ([]types.Goal, error)

	// Fetch returns a goal by ID, or ErrNotFound.
	Fetch(ctx context.Context, id string) (*types.Goal, error)

	// FetchDirty returns goals with local changes not yet confirmed remotely.
	FetchDirty(ctx context.Context) ([]types.Goal, error)

	// FetchByParent returns the goals linked under the given parent.
	FetchByParent(ctx context.Context, parentID string) ([]types.Goal, error)

	// FetchLongTermCandidates returns active long-term goals for the owner,
	// sorted by title. These are the valid link targets for short-term goals.
	FetchLongTermCandidates(ctx context.Context, ownerID string) ([]types.Goal, error)

	// Save upserts a goal by ID and returns the stored copy. A goal without
	// an ID is assigned one and stamped with CreatedAt; updates never
	// overwrite CreatedAt.
	Save(ctx context.Context, goal types.Goal) (*types.Goal, error)

	// Delete removes a goal. Deleting an absent goal is not an error.
	Delete(ctx context.Context, id string) error

	// Snapshot writes a consistent copy of the database to destPath.
	Snapshot(ctx context.Context, destPath string) error

	Close() error
}
