package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/remote"
)

var linkCmd = &cobra.Command{
	Use:   "link <goal-id> <parent-goal-id>",
	Short: "Link a short-term goal under a long-term goal",
	Long:  "Link a short-term goal under a long-term parent. The link is applied locally right away and rolled back if the service rejects it.",
	Args:  cobra.ExactArgs(2),
	RunE:  runLink,
}

func runLink(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	linked, err := a.repo.Link(ctx, args[0], args[1])
	if err != nil {
		var ruleErr *remote.LinkRuleError
		if errors.As(err, &ruleErr) {
			return errors.New(ruleErr.UserMessage())
		}
		return fmt.Errorf("link goal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), linked)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Linked goal %q under %s\n", linked.Title, args[1])
	return nil
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <goal-id>",
	Short: "Detach a goal from its parent",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnlink,
}

func runUnlink(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	unlinked, err := a.repo.Unlink(ctx, args[0])
	if err != nil {
		var ruleErr *remote.LinkRuleError
		if errors.As(err, &ruleErr) {
			return errors.New(ruleErr.UserMessage())
		}
		return fmt.Errorf("unlink goal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), unlinked)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Unlinked goal %q\n", unlinked.Title)
	return nil
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List long-term goals that can accept links",
	Long:  "List active long-term goals suitable as link parents. Served from the local cache when the service is unreachable.",
	Args:  cobra.NoArgs,
	RunE:  runCandidates,
}

func runCandidates(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	goals, err := a.repo.LongTermCandidates(ctx, a.cfg.Sync.OwnerID)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"candidates": goals,
			"total":      len(goals),
		})
	}

	if len(goals) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No link candidates found.")
		return nil
	}
	printGoalTable(cmd.OutOrStdout(), goals)
	return nil
}
