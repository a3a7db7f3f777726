package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/config"
	"github.com/stridehq/stride/internal/remote"
	"github.com/stridehq/stride/internal/store"
	"github.com/stridehq/stride/internal/syncrepo"
	"github.com/stridehq/stride/internal/types"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:     "stride",
	Short:   "Stride - offline-first goal tracking",
	Long:    "Track long-term and short-term goals against the Stride service, with a local cache that keeps every command working offline.",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(candidatesCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(backupCmd)
}

// app bundles everything a command needs after wiring.
type app struct {
	cfg   *config.Config
	store *store.SQLiteStore
	repo  *syncrepo.Repository
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}
}

// resolveApp loads config, initializes the logger, opens the local cache,
// and wires the sync repository against the remote service.
func resolveApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	svc := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey,
		time.Duration(cfg.Remote.RequestTimeout))
	repo := syncrepo.New(db, svc, logger)

	return &app{cfg: cfg, store: db, repo: repo}, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// printGoalTable renders goals as an aligned table.
func printGoalTable(w io.Writer, goals []types.Goal) {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ID\tTITLE\tKIND\tSTATUS\tPROGRESS\tPARENT\tSYNC")
	for _, g := range goals {
		parent := "-"
		if g.ParentGoalID != nil {
			parent = *g.ParentGoalID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\t%s\t%s\n",
			g.ID, g.Title, g.Kind, g.Status, g.Progress, parent, syncState(g))
	}
	tw.Flush()
}

func syncState(g types.Goal) string {
	if g.Dirty() {
		return "pending"
	}
	return "synced"
}
