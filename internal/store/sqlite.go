package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stridehq/stride/internal/types"
	_ "modernc.org/sqlite"
)

// goalColumns is the canonical column list for goal SELECTs, matching the
// order scanGoal expects.
const goalColumns = `id, owner_id, title, description, category, kind, target_date,
       status, progress, parent_goal_id, created_at, updated_at, last_synced_at`

// SQLiteStore is the SQLite-backed goals cache.
type SQLiteStore struct {
	db *sql.DB
}

var _ LocalStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection: the cache is single-writer, and :memory: databases
	// exist per connection.
	db.SetMaxOpenConns(1)

	// Enable pragmas for performance and safety
	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	// Run goose migrations
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FetchAll returns all goals for the owner ordered by updated_at descending.
func (s *SQLiteStore) FetchAll(ctx context.Context, ownerID string) ([]types.Goal, error) {
	return s.queryGoals(ctx, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE owner_id = ?
		ORDER BY updated_at DESC
	`, ownerID)
}

// Fetch retrieves a single goal by ID.
func (s *SQLiteStore) Fetch(ctx context.Context, id string) (*types.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE id = ?
	`, id)

	goal, err := scanGoal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}

	return goal, nil
}

// FetchDirty returns goals whose last sync is missing or older than their
// last local update.
func (s *SQLiteStore) FetchDirty(ctx context.Context) ([]types.Goal, error) {
	return s.queryGoals(ctx, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE last_synced_at IS NULL OR last_synced_at < updated_at
		ORDER BY updated_at DESC
	`)
}

// FetchByParent returns goals linked under the given parent.
func (s *SQLiteStore) FetchByParent(ctx context.Context, parentID string) ([]types.Goal, error) {
	return s.queryGoals(ctx, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE parent_goal_id = ?
		ORDER BY updated_at DESC
	`, parentID)
}

// FetchLongTermCandidates returns active long-term goals sorted by title.
func (s *SQLiteStore) FetchLongTermCandidates(ctx context.Context, ownerID string) ([]types.Goal, error) {
	return s.queryGoals(ctx, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE owner_id = ? AND kind = ? AND status = ?
		ORDER BY title COLLATE NOCASE ASC
	`, ownerID, types.KindLongTerm, types.StatusActive)
}

// Save upserts a goal by ID. New goals without an ID are assigned one and
// stamped with CreatedAt; the stored created_at is never overwritten on update.
func (s *SQLiteStore) Save(ctx context.Context, goal types.Goal) (*types.Goal, error) {
	now := time.Now().UTC()
	if goal.ID == "" {
		goal.ID = ulid.Make().String()
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	if goal.UpdatedAt.IsZero() {
		goal.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (
			id, owner_id, title, description, category, kind, target_date,
			status, progress, parent_goal_id, created_at, updated_at, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id       = excluded.owner_id,
			title          = excluded.title,
			description    = excluded.description,
			category       = excluded.category,
			kind           = excluded.kind,
			target_date    = excluded.target_date,
			status         = excluded.status,
			progress       = excluded.progress,
			parent_goal_id = excluded.parent_goal_id,
			updated_at     = excluded.updated_at,
			last_synced_at = excluded.last_synced_at
	`,
		goal.ID,
		goal.OwnerID,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Kind,
		formatOptionalTime(goal.TargetDate),
		goal.Status,
		goal.Progress,
		goal.ParentGoalID,
		goal.CreatedAt.Format(time.RFC3339Nano),
		goal.UpdatedAt.Format(time.RFC3339Nano),
		formatOptionalTime(goal.LastSyncedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert goal: %w", err)
	}

	// Re-read so the caller sees the preserved created_at on updates.
	return s.Fetch(ctx, goal.ID)
}

// Delete removes a goal by ID. Idempotent.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// Snapshot writes a consistent copy of the database to destPath using
// VACUUM INTO. Any existing file at destPath is replaced.
func (s *SQLiteStore) Snapshot(ctx context.Context, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("vacuum into snapshot: %w", err)
	}
	return nil
}

// queryGoals runs a multi-row goal query and scans the results.
func (s *SQLiteStore) queryGoals(ctx context.Context, query string, args ...any) ([]types.Goal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []types.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		goals = append(goals, *goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return goals, nil
}

// scanGoal scans a row into a Goal, handling nullable columns and timestamps.
func scanGoal(scanner interface{ Scan(...any) error }) (*types.Goal, error) {
	var goal types.Goal
	var targetDate, parentGoalID, lastSyncedAt sql.NullString
	var createdAt, updatedAt string

	err := scanner.Scan(
		&goal.ID,
		&goal.OwnerID,
		&goal.Title,
		&goal.Description,
		&goal.Category,
		&goal.Kind,
		&targetDate,
		&goal.Status,
		&goal.Progress,
		&parentGoalID,
		&createdAt,
		&updatedAt,
		&lastSyncedAt,
	)
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		goal.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		goal.UpdatedAt = t
	}
	if targetDate.Valid {
		if t, err := time.Parse(time.RFC3339Nano, targetDate.String); err == nil {
			goal.TargetDate = &t
		}
	}
	if lastSyncedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastSyncedAt.String); err == nil {
			goal.LastSyncedAt = &t
		}
	}
	if parentGoalID.Valid {
		goal.ParentGoalID = &parentGoalID.String
	}

	return &goal, nil
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
