package worker

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/stridehq/stride/internal/snapshot"
)

// Snapshotter produces a consistent copy of the local cache at a path.
type Snapshotter interface {
	Snapshot(ctx context.Context, destPath string) error
}

// BackupCoordinator periodically snapshots the local cache and uploads
// the snapshot to S3-compatible storage.
type BackupCoordinator struct {
	store    Snapshotter
	uploader snapshot.Uploader
	ownerID  string
	dir      string
	interval time.Duration
}

// NewBackupCoordinator creates a coordinator that writes snapshots under
// dir and uploads them for the given owner. The uploader parameter is
// optional; if nil, no S3 upload is attempted.
func NewBackupCoordinator(
	store Snapshotter,
	uploader snapshot.Uploader,
	ownerID string,
	dir string,
	interval time.Duration,
) *BackupCoordinator {
	return &BackupCoordinator{
		store:    store,
		uploader: uploader,
		ownerID:  ownerID,
		dir:      dir,
		interval: interval,
	}
}

// SnapshotPath returns the path the coordinator writes snapshots to.
func (c *BackupCoordinator) SnapshotPath() string {
	return filepath.Join(c.dir, "current.db")
}

// Run starts the coordinator loop.
func (c *BackupCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup-coordinator",
		"action", "worker_started",
		"interval", c.interval.String(),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Generate a snapshot immediately on start
	c.backup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup-coordinator",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.backup(ctx)
		}
	}
}

func (c *BackupCoordinator) backup(ctx context.Context) {
	path := c.SnapshotPath()

	if err := c.store.Snapshot(ctx, path); err != nil {
		if ctx.Err() != nil {
			return // Graceful shutdown, don't log as error
		}
		slog.Warn("snapshot generation failed",
			"component", "worker",
			"worker", "backup-coordinator",
			"action", "snapshot_failed",
			"path", path,
			"error", err,
		)
		return
	}

	slog.Info("snapshot generated",
		"component", "worker",
		"worker", "backup-coordinator",
		"action", "snapshot_generated",
		"path", path,
	)

	// Upload failures are NOT fatal; the local snapshot remains valid.
	if c.uploader == nil {
		return
	}
	if err := c.uploader.Upload(ctx, c.ownerID, path); err != nil {
		slog.Warn("snapshot upload failed",
			"component", "worker",
			"worker", "backup-coordinator",
			"action", "snapshot_upload_failed",
			"owner_id", c.ownerID,
			"error", err,
		)
		return
	}

	slog.Info("snapshot uploaded",
		"component", "worker",
		"worker", "backup-coordinator",
		"action", "snapshot_uploaded",
		"owner_id", c.ownerID,
	)
}
