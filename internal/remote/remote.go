// Package remote is the typed client surface for the goals backend. It owns
// translating transport-level failures into the classified error taxonomy;
// callers never see raw HTTP statuses or response bodies.
package remote

import (
	"context"

	"github.com/stridehq/stride/internal/types"
)

// Service is the authoritative goals backend. Every call may fail with a
// classified error: ErrNetwork, ErrUnauthorized, ErrNotFound, *ServerError,
// or, for link operations, *LinkRuleError.
type Service interface {
	FetchAll(ctx context.Context, ownerID string) ([]types.Goal, error)
	FetchByID(ctx context.Context, id string) (*types.Goal, error)

	// Create returns the canonical server copy, with normalized timestamps.
	Create(ctx context.Context, goal types.Goal) (*types.Goal, error)
	Update(ctx context.Context, goal types.Goal) (*types.Goal, error)
	Delete(ctx context.Context, id string) error

	FetchLongTermCandidates(ctx context.Context, ownerID string) ([]types.Goal, error)

	// LinkGoal attaches a short-term child under a long-term parent. The
	// server enforces the hierarchy rules and rejects violations with a
	// *LinkRuleError carrying one of the closed rule codes.
	LinkGoal(ctx context.Context, childID, parentID string) (*types.Goal, error)
	UnlinkGoal(ctx context.Context, childID string) (*types.Goal, error)

	FetchChildren(ctx context.Context, parentID string) ([]types.Goal, error)
	FetchParent(ctx context.Context, childID string) (*types.Goal, error)
}
