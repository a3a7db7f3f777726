package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/snapshot"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the local cache and upload it",
	Long:  "Write a consistent snapshot of the local cache and upload it to the configured S3-compatible bucket. Without backup configuration only the local snapshot is written.",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

var backupURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print a pre-signed download URL for the latest backup",
	Args:  cobra.NoArgs,
	RunE:  runBackupURL,
}

func init() {
	backupCmd.AddCommand(backupURLCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	path := filepath.Join(filepath.Dir(a.cfg.Database.Path), "snapshots", "current.db")
	if err := a.store.Snapshot(ctx, path); err != nil {
		return fmt.Errorf("generate snapshot: %w", err)
	}

	uploader, err := snapshot.NewUploader(a.cfg.Backup)
	if err != nil {
		return err
	}
	if err := uploader.Upload(ctx, a.cfg.Sync.OwnerID, path); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"snapshot": path,
			"uploaded": a.cfg.Backup.Bucket != "",
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot written to %s\n", path)
	if a.cfg.Backup.Bucket != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded to bucket %s\n", a.cfg.Backup.Bucket)
	}
	return nil
}

func runBackupURL(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	uploader, err := snapshot.NewUploader(a.cfg.Backup)
	if err != nil {
		return err
	}

	url, expiry, err := uploader.PresignedURL(ctx, a.cfg.Sync.OwnerID)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotConfigured) {
			return errors.New("backup storage is not configured (set STRIDE_BACKUP_BUCKET)")
		}
		return fmt.Errorf("generate backup URL: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"url":        url,
			"expires_at": expiry,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n(expires %s)\n", url, expiry.Format("2006-01-02 15:04:05"))
	return nil
}
