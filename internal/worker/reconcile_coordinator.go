// Package worker contains background coordinators hosted by the daemon
// command. Each coordinator owns one periodic job and runs until its
// context is cancelled.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler pushes pending local changes to the goals service.
// This interface allows testing with mock implementations.
type Reconciler interface {
	Reconcile(ctx context.Context, ownerID string) error
}

// ReconcileCoordinator periodically pushes dirty goals to the remote service.
type ReconcileCoordinator struct {
	reconciler Reconciler
	ownerID    string
	interval   time.Duration
}

// NewReconcileCoordinator creates a coordinator that reconciles the given
// owner's goals on the given interval.
func NewReconcileCoordinator(reconciler Reconciler, ownerID string, interval time.Duration) *ReconcileCoordinator {
	return &ReconcileCoordinator{
		reconciler: reconciler,
		ownerID:    ownerID,
		interval:   interval,
	}
}

// Run starts the coordinator loop.
func (c *ReconcileCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "reconcile-coordinator",
		"action", "worker_started",
		"interval", c.interval.String(),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Reconcile immediately on start to drain edits made while offline
	c.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "reconcile-coordinator",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.reconcile(ctx)
		}
	}
}

func (c *ReconcileCoordinator) reconcile(ctx context.Context) {
	if err := c.reconciler.Reconcile(ctx, c.ownerID); err != nil {
		if ctx.Err() != nil {
			return // Graceful shutdown, don't log as error
		}
		slog.Warn("reconcile cycle failed",
			"component", "worker",
			"worker", "reconcile-coordinator",
			"action", "reconcile_failed",
			"owner_id", c.ownerID,
			"error", err,
		)
		return
	}

	slog.Debug("reconcile cycle completed",
		"component", "worker",
		"worker", "reconcile-coordinator",
		"action", "cycle_complete",
		"owner_id", c.ownerID,
	)
}
