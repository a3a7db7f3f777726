package syncrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stridehq/stride/internal/conflict"
	"github.com/stridehq/stride/internal/remote"
	"github.com/stridehq/stride/internal/store"
	"github.com/stridehq/stride/internal/types"
)

// Repository orchestrates reads and writes across the local cache and the
// remote goals service. Callers go through the repository exclusively; it
// never exposes the underlying stores.
type Repository struct {
	local  store.LocalStore
	svc    remote.Service
	logger *slog.Logger
}

// New creates a Repository over the given cache and service.
// If logger is nil, slog.Default() is used.
func New(local store.LocalStore, svc remote.Service, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{local: local, svc: svc, logger: logger}
}

// List returns the owner's goals. The cached result is refreshed from the
// service when reachable; on remote failure a non-empty cache is returned
// as-is, so a transient outage never empties a previously cached list.
func (r *Repository) List(ctx context.Context, ownerID string) ([]types.Goal, error) {
	cached, err := r.local.FetchAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read cached goals: %w", err)
	}

	remoteGoals, rerr := r.svc.FetchAll(ctx, ownerID)
	if rerr != nil {
		if len(cached) > 0 {
			r.logger.Warn("remote refresh failed, serving cache",
				"owner_id", ownerID, "cached", len(cached), "error", rerr)
			return cached, nil
		}
		return nil, fmt.Errorf("refresh goals: %w", rerr)
	}

	if err := r.mergeRemote(ctx, remoteGoals); err != nil {
		return nil, err
	}

	// Re-read so the result reflects the post-merge cache, not the raw
	// network payload.
	return r.local.FetchAll(ctx, ownerID)
}

// Get returns the cached goal, or nil when it is not cached. Deliberately
// cache-only; no remote fetch is attempted.
func (r *Repository) Get(ctx context.Context, id string) (*types.Goal, error) {
	goal, err := r.local.Fetch(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached goal: %w", err)
	}
	return goal, nil
}

// Create persists the goal locally first, so it is immediately visible to
// the caller, then pushes it to the service. When the push fails the dirty
// local copy is returned without error; a later Reconcile picks it up.
func (r *Repository) Create(ctx context.Context, goal types.Goal) (*types.Goal, error) {
	goal.Touch()
	saved, err := r.local.Save(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("save goal locally: %w", err)
	}

	created, rerr := r.svc.Create(ctx, *saved)
	if rerr != nil {
		r.logger.Warn("goal created offline, pending sync", "goal_id", saved.ID, "error", rerr)
		return saved, nil
	}

	stampSynced(created)
	return r.local.Save(ctx, *created)
}

// Update stamps the goal's UpdatedAt, persists it dirty, then pushes it to
// the service. Hierarchy rule rejections (kind change while linked) surface
// to the caller; any other remote failure leaves the goal dirty without
// error.
func (r *Repository) Update(ctx context.Context, goal types.Goal) (*types.Goal, error) {
	goal.Touch()
	saved, err := r.local.Save(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("save goal locally: %w", err)
	}

	updated, rerr := r.svc.Update(ctx, *saved)
	if rerr != nil {
		var ruleErr *remote.LinkRuleError
		if errors.As(rerr, &ruleErr) {
			return nil, ruleErr
		}
		r.logger.Warn("goal updated offline, pending sync", "goal_id", saved.ID, "error", rerr)
		return saved, nil
	}

	stampSynced(updated)
	return r.local.Save(ctx, *updated)
}

// Delete removes the goal remotely, then locally. A remote failure is
// logged and ignored: local deletion always proceeds, trading the risk of
// an orphaned remote record for a cache that never resurrects deleted
// goals.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.svc.Delete(ctx, id); err != nil && !errors.Is(err, remote.ErrNotFound) {
		r.logger.Warn("remote delete failed, removing local copy anyway",
			"goal_id", id, "error", err)
	}

	if err := r.local.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete goal locally: %w", err)
	}
	return nil
}

// Reconcile pushes every dirty goal belonging to the owner to the service.
// Each goal's outcome is independent: a failure is logged and skipped, and
// the goal stays dirty for the next pass. Only local storage failures abort
// the pass.
func (r *Repository) Reconcile(ctx context.Context, ownerID string) error {
	dirty, err := r.local.FetchDirty(ctx)
	if err != nil {
		return fmt.Errorf("fetch dirty goals: %w", err)
	}

	var synced, failed int
	for _, goal := range dirty {
		if goal.OwnerID != ownerID {
			continue
		}

		pushed, rerr := r.push(ctx, goal)
		if rerr != nil {
			r.logger.Warn("reconcile skipped goal", "goal_id", goal.ID, "error", rerr)
			failed++
			continue
		}

		stampSynced(pushed)
		if _, err := r.local.Save(ctx, *pushed); err != nil {
			return fmt.Errorf("persist reconciled goal %s: %w", goal.ID, err)
		}
		synced++
	}

	r.logger.Info("reconcile complete", "owner_id", ownerID, "synced", synced, "failed", failed)
	return nil
}

// push sends one dirty goal to the service, creating it when the service
// does not know it yet.
func (r *Repository) push(ctx context.Context, goal types.Goal) (*types.Goal, error) {
	_, err := r.svc.FetchByID(ctx, goal.ID)
	switch {
	case err == nil:
		return r.svc.Update(ctx, goal)
	case errors.Is(err, remote.ErrNotFound):
		return r.svc.Create(ctx, goal)
	default:
		return nil, err
	}
}

// LongTermCandidates returns the owner's active long-term goals, the valid
// link targets for a short-term goal. Same cache/refresh behavior as List.
func (r *Repository) LongTermCandidates(ctx context.Context, ownerID string) ([]types.Goal, error) {
	cached, err := r.local.FetchLongTermCandidates(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read cached candidates: %w", err)
	}

	remoteGoals, rerr := r.svc.FetchLongTermCandidates(ctx, ownerID)
	if rerr != nil {
		if len(cached) > 0 {
			return cached, nil
		}
		return nil, fmt.Errorf("refresh candidates: %w", rerr)
	}

	if err := r.mergeRemote(ctx, remoteGoals); err != nil {
		return nil, err
	}
	return r.local.FetchLongTermCandidates(ctx, ownerID)
}

// Children returns the goals linked under the given parent, refreshed from
// the service when reachable.
func (r *Repository) Children(ctx context.Context, parentID string) ([]types.Goal, error) {
	cached, err := r.local.FetchByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("read cached children: %w", err)
	}

	remoteGoals, rerr := r.svc.FetchChildren(ctx, parentID)
	if rerr != nil {
		if len(cached) > 0 {
			return cached, nil
		}
		return nil, fmt.Errorf("refresh children: %w", rerr)
	}

	if err := r.mergeRemote(ctx, remoteGoals); err != nil {
		return nil, err
	}
	return r.local.FetchByParent(ctx, parentID)
}

// Parent returns the linked parent of the given child, or nil when the
// child has no parent. The cache is consulted first.
func (r *Repository) Parent(ctx context.Context, childID string) (*types.Goal, error) {
	child, err := r.local.Fetch(ctx, childID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("read cached goal: %w", err)
	}

	if child != nil {
		if child.ParentGoalID == nil {
			return nil, nil
		}
		parent, err := r.local.Fetch(ctx, *child.ParentGoalID)
		if err == nil {
			return parent, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("read cached parent: %w", err)
		}
	}

	parent, rerr := r.svc.FetchParent(ctx, childID)
	if rerr != nil {
		if errors.Is(rerr, remote.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch parent: %w", rerr)
	}

	stampSynced(parent)
	return r.local.Save(ctx, *parent)
}

// mergeRemote folds a batch of server goals into the cache. Each incoming
// goal runs through the conflict policy against its cached counterpart: a
// dirty local copy with a newer UpdatedAt survives the refresh and stays
// queued for reconciliation.
func (r *Repository) mergeRemote(ctx context.Context, remoteGoals []types.Goal) error {
	for _, rg := range remoteGoals {
		local, err := r.local.Fetch(ctx, rg.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("read cached goal: %w", err)
		}

		if local != nil {
			winner := conflict.Resolve(*local, rg)
			// Ties favor local, so the remote copy wins only with a
			// strictly newer UpdatedAt.
			if !winner.UpdatedAt.After(local.UpdatedAt) {
				continue
			}
		}

		merged := rg
		stampSynced(&merged)
		if _, err := r.local.Save(ctx, merged); err != nil {
			return fmt.Errorf("persist refreshed goal %s: %w", rg.ID, err)
		}
	}
	return nil
}

// stampSynced marks a server round-trip as confirmed. The stamp never
// trails the server's own UpdatedAt, so clock skew between device and
// server cannot leave a freshly synced goal looking dirty.
func stampSynced(g *types.Goal) {
	at := time.Now().UTC()
	if g.UpdatedAt.After(at) {
		at = g.UpdatedAt
	}
	g.MarkSynced(at)
}
