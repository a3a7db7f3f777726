package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending local changes to the remote service",
	Long:  "Run one reconcile cycle: every goal edited or created while offline is pushed to the remote service. Goals that fail to push stay pending for the next cycle.",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.repo.Reconcile(ctx, a.cfg.Sync.OwnerID); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"reconciled": true})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Reconcile complete.")
	return nil
}
