package syncrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/stridehq/stride/internal/store"
	"github.com/stridehq/stride/internal/types"
)

// attemptState tracks the lifecycle of one optimistic hierarchy mutation.
type attemptState int

const (
	attemptProposed attemptState = iota
	attemptConfirmed
	attemptRolledBack
)

// linkAttempt records an optimistic link or unlink against the cache. The
// child's full prior state is captured before the mutation, so rollback
// restores exactly what was there — including a pre-existing parent — and
// not merely a cleared link.
type linkAttempt struct {
	prior *types.Goal // nil when the child was not cached
	state attemptState
}

// propose applies mutate to the cached child and persists it, capturing the
// prior state first. A child missing from the cache yields an attempt with
// nothing to roll back.
func (r *Repository) propose(ctx context.Context, childID string, mutate func(*types.Goal)) (*linkAttempt, error) {
	child, err := r.local.Fetch(ctx, childID)
	if errors.Is(err, store.ErrNotFound) {
		return &linkAttempt{state: attemptProposed}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached goal: %w", err)
	}

	prior := *child
	mutate(child)
	child.Touch()
	if _, err := r.local.Save(ctx, *child); err != nil {
		return nil, fmt.Errorf("save optimistic link state: %w", err)
	}

	return &linkAttempt{prior: &prior, state: attemptProposed}, nil
}

// confirm persists the server's canonical copy, completing the attempt.
func (r *Repository) confirm(ctx context.Context, attempt *linkAttempt, serverCopy *types.Goal) (*types.Goal, error) {
	stampSynced(serverCopy)
	saved, err := r.local.Save(ctx, *serverCopy)
	if err != nil {
		return nil, fmt.Errorf("persist linked goal: %w", err)
	}
	attempt.state = attemptConfirmed
	return saved, nil
}

// rollback restores the captured prior state after a remote rejection.
func (r *Repository) rollback(ctx context.Context, attempt *linkAttempt) error {
	if attempt.prior == nil {
		attempt.state = attemptRolledBack
		return nil
	}
	if _, err := r.local.Save(ctx, *attempt.prior); err != nil {
		return fmt.Errorf("roll back optimistic link state: %w", err)
	}
	attempt.state = attemptRolledBack
	return nil
}

// Link attaches the short-term child under the long-term parent. The cache
// is updated optimistically before the service confirms; a rejection rolls
// the child back to its captured prior state and surfaces the rule error.
func (r *Repository) Link(ctx context.Context, childID, parentID string) (*types.Goal, error) {
	attempt, err := r.propose(ctx, childID, func(g *types.Goal) {
		g.ParentGoalID = &parentID
	})
	if err != nil {
		return nil, err
	}

	linked, rerr := r.svc.LinkGoal(ctx, childID, parentID)
	if rerr != nil {
		if err := r.rollback(ctx, attempt); err != nil {
			r.logger.Error("link rollback failed", "goal_id", childID, "error", err)
		}
		return nil, fmt.Errorf("link goal: %w", rerr)
	}

	return r.confirm(ctx, attempt, linked)
}

// Unlink detaches the child from its parent, with the same optimistic
// write and rollback discipline as Link.
func (r *Repository) Unlink(ctx context.Context, childID string) (*types.Goal, error) {
	attempt, err := r.propose(ctx, childID, func(g *types.Goal) {
		g.ParentGoalID = nil
	})
	if err != nil {
		return nil, err
	}

	unlinked, rerr := r.svc.UnlinkGoal(ctx, childID)
	if rerr != nil {
		if err := r.rollback(ctx, attempt); err != nil {
			r.logger.Error("unlink rollback failed", "goal_id", childID, "error", err)
		}
		return nil, fmt.Errorf("unlink goal: %w", rerr)
	}

	return r.confirm(ctx, attempt, unlinked)
}
