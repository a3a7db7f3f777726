package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/remote"
	"github.com/stridehq/stride/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	Long:  "List goals for the configured owner. Refreshes from the remote service when reachable, otherwise serves the local cache.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	goals, err := a.repo.List(ctx, a.cfg.Sync.OwnerID)
	if err != nil {
		return fmt.Errorf("list goals: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"goals": goals,
			"total": len(goals),
		})
	}

	if len(goals) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No goals found.")
		return nil
	}
	printGoalTable(cmd.OutOrStdout(), goals)
	return nil
}

var (
	createDescription string
	createCategory    string
	createKind        string
	createTargetDate  string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a goal",
	Long:  "Create a goal locally and push it to the remote service. When the service is unreachable the goal stays cached and syncs on the next reconcile.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createDescription, "description", "",
		"Longer description of the goal")
	createCmd.Flags().StringVar(&createCategory, "category", "",
		"Free-form category label")
	createCmd.Flags().StringVar(&createKind, "kind", string(types.KindShortTerm),
		"Goal kind: LONG_TERM or SHORT_TERM")
	createCmd.Flags().StringVar(&createTargetDate, "target-date", "",
		"Target date in YYYY-MM-DD format")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kind := types.GoalKind(createKind)
	if !types.ValidKind(kind) {
		return fmt.Errorf("invalid kind %q", createKind)
	}

	goal := types.Goal{
		Title:       args[0],
		Description: createDescription,
		Category:    createCategory,
		Kind:        kind,
		Status:      types.StatusActive,
	}
	if createTargetDate != "" {
		target, err := time.Parse("2006-01-02", createTargetDate)
		if err != nil {
			return fmt.Errorf("invalid target date %q: %w", createTargetDate, err)
		}
		goal.TargetDate = &target
	}

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()
	goal.OwnerID = a.cfg.Sync.OwnerID

	created, err := a.repo.Create(ctx, goal)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), created)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created goal %q (%s, sync: %s)\n",
		created.Title, created.ID, syncState(*created))
	return nil
}

var (
	updateTitle       string
	updateDescription string
	updateCategory    string
	updateStatus      string
	updateProgress    int
)

var updateCmd = &cobra.Command{
	Use:   "update <goal-id>",
	Short: "Update a goal",
	Long:  "Update fields of a cached goal and push the change to the remote service.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "New description")
	updateCmd.Flags().StringVar(&updateCategory, "category", "", "New category")
	updateCmd.Flags().StringVar(&updateStatus, "status", "",
		"New status: ACTIVE, COMPLETED, PAUSED, ABANDONED")
	updateCmd.Flags().IntVar(&updateProgress, "progress", -1,
		"New progress percentage (0-100)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	goal, err := a.repo.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load goal: %w", err)
	}
	if goal == nil {
		return fmt.Errorf("goal %q not found in local cache", args[0])
	}

	if updateTitle != "" {
		goal.Title = updateTitle
	}
	if cmd.Flags().Changed("description") {
		goal.Description = updateDescription
	}
	if cmd.Flags().Changed("category") {
		goal.Category = updateCategory
	}
	if updateStatus != "" {
		status := types.GoalStatus(updateStatus)
		if !types.ValidStatus(status) {
			return fmt.Errorf("invalid status %q", updateStatus)
		}
		goal.Status = status
	}
	if updateProgress >= 0 {
		if updateProgress > 100 {
			return fmt.Errorf("progress must be between 0 and 100, got %d", updateProgress)
		}
		goal.Progress = updateProgress
	}

	updated, err := a.repo.Update(ctx, *goal)
	if err != nil {
		var ruleErr *remote.LinkRuleError
		if errors.As(err, &ruleErr) {
			return errors.New(ruleErr.UserMessage())
		}
		return fmt.Errorf("update goal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), updated)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated goal %q (sync: %s)\n",
		updated.Title, syncState(*updated))
	return nil
}

var completeCmd = &cobra.Command{
	Use:   "complete <goal-id>",
	Short: "Mark a goal as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	goal, err := a.repo.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load goal: %w", err)
	}
	if goal == nil {
		return fmt.Errorf("goal %q not found in local cache", args[0])
	}

	goal.Status = types.StatusCompleted
	goal.Progress = 100

	updated, err := a.repo.Update(ctx, *goal)
	if err != nil {
		return fmt.Errorf("complete goal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), updated)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Completed goal %q\n", updated.Title)
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <goal-id>",
	Short: "Delete a goal",
	Long:  "Delete a goal from the remote service and the local cache. The local copy is removed even when the service is unreachable.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := resolveApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.repo.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": args[0]})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s\n", args[0])
	return nil
}
