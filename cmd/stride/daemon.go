package main

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/snapshot"
	"github.com/stridehq/stride/internal/worker"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run background reconcile and backup workers",
	Long:  "Run the reconcile coordinator (pushes pending local changes on an interval) and, when backup storage is configured, the backup coordinator. Stops on SIGTERM or SIGINT.",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	uploader, err := snapshot.NewUploader(a.cfg.Backup)
	if err != nil {
		return err
	}

	reconcile := worker.NewReconcileCoordinator(
		a.repo,
		a.cfg.Sync.OwnerID,
		time.Duration(a.cfg.Sync.ReconcileInterval),
	)
	backup := worker.NewBackupCoordinator(
		a.store,
		uploader,
		a.cfg.Sync.OwnerID,
		filepath.Join(filepath.Dir(a.cfg.Database.Path), "snapshots"),
		time.Duration(a.cfg.Backup.Interval),
	)

	var wg sync.WaitGroup
	startWorker(ctx, &wg, "reconcile", reconcile.Run)
	startWorker(ctx, &wg, "backup", backup.Run)

	<-ctx.Done()
	slog.Info("shutdown initiated")

	wg.Wait()
	slog.Info("shutdown complete")
	return nil
}

// startWorker launches a background worker goroutine that respects context
// cancellation. Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
