package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stridehq/stride/internal/types"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testGoal(owner, title string) types.Goal {
	return types.Goal{
		OwnerID:  owner,
		Title:    title,
		Kind:     types.KindShortTerm,
		Status:   types.StatusActive,
		Progress: 0,
	}
}

func TestStore_NewSQLiteStore(t *testing.T) {
	db, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
}

func TestStore_Save_AssignsIDAndCreatedAt(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	saved, err := db.Save(ctx, testGoal("user-1", "Read 12 books"))
	if err != nil {
		t.Fatal(err)
	}

	if saved.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}
	if !saved.Dirty() {
		t.Error("freshly saved local goal should be dirty")
	}
}

func TestStore_Save_PreservesCreatedAtOnUpdate(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	saved, err := db.Save(ctx, testGoal("user-1", "Run a marathon"))
	if err != nil {
		t.Fatal(err)
	}
	originalCreatedAt := saved.CreatedAt

	// Simulate a later edit carrying a bogus CreatedAt
	edited := *saved
	edited.Title = "Run a half marathon"
	edited.CreatedAt = time.Now().UTC().Add(48 * time.Hour)
	edited.Touch()

	updated, err := db.Save(ctx, edited)
	if err != nil {
		t.Fatal(err)
	}

	if !updated.CreatedAt.Equal(originalCreatedAt) {
		t.Errorf("CreatedAt changed on update: got %v, want %v", updated.CreatedAt, originalCreatedAt)
	}
	if updated.Title != "Run a half marathon" {
		t.Errorf("Title not updated: got %q", updated.Title)
	}
}

func TestStore_Fetch_NotFound(t *testing.T) {
	db := newTestStore(t)

	_, err := db.Fetch(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_FetchAll_OrderedByUpdatedAtDesc(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, title := range []string{"oldest", "middle", "newest"} {
		g := testGoal("user-1", title)
		g.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := db.Save(ctx, g); err != nil {
			t.Fatal(err)
		}
	}
	// Another owner's goal must not appear
	if _, err := db.Save(ctx, testGoal("user-2", "other")); err != nil {
		t.Fatal(err)
	}

	goals, err := db.FetchAll(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	if len(goals) != 3 {
		t.Fatalf("expected 3 goals, got %d", len(goals))
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if goals[i].Title != want {
			t.Errorf("position %d: got %q, want %q", i, goals[i].Title, want)
		}
	}
}

func TestStore_FetchDirty(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	// Dirty: never synced
	if _, err := db.Save(ctx, testGoal("user-1", "unsynced")); err != nil {
		t.Fatal(err)
	}

	// Dirty: synced before last update
	stale := testGoal("user-1", "stale")
	stale.UpdatedAt = time.Now().UTC()
	syncedEarlier := stale.UpdatedAt.Add(-time.Minute)
	stale.LastSyncedAt = &syncedEarlier
	if _, err := db.Save(ctx, stale); err != nil {
		t.Fatal(err)
	}

	// Clean: synced at last update
	clean := testGoal("user-1", "clean")
	clean.UpdatedAt = time.Now().UTC()
	clean.MarkSynced(clean.UpdatedAt)
	if _, err := db.Save(ctx, clean); err != nil {
		t.Fatal(err)
	}

	dirty, err := db.FetchDirty(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if len(dirty) != 2 {
		t.Fatalf("expected 2 dirty goals, got %d", len(dirty))
	}
	for _, g := range dirty {
		if g.Title == "clean" {
			t.Error("clean goal reported as dirty")
		}
		if !g.Dirty() {
			t.Errorf("FetchDirty returned non-dirty goal %q", g.Title)
		}
	}
}

func TestStore_FetchByParent(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	parent := testGoal("user-1", "Get fit")
	parent.Kind = types.KindLongTerm
	savedParent, err := db.Save(ctx, parent)
	if err != nil {
		t.Fatal(err)
	}

	child := testGoal("user-1", "Run 5k")
	child.ParentGoalID = &savedParent.ID
	if _, err := db.Save(ctx, child); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Save(ctx, testGoal("user-1", "Unlinked")); err != nil {
		t.Fatal(err)
	}

	children, err := db.FetchByParent(ctx, savedParent.ID)
	if err != nil {
		t.Fatal(err)
	}

	if len(children) != 1 || children[0].Title != "Run 5k" {
		t.Errorf("unexpected children: %+v", children)
	}
}

func TestStore_FetchLongTermCandidates_SortedByTitle(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	for _, spec := range []struct {
		title  string
		kind   types.GoalKind
		status types.GoalStatus
	}{
		{"beta", types.KindLongTerm, types.StatusActive},
		{"Alpha", types.KindLongTerm, types.StatusActive},
		{"paused", types.KindLongTerm, types.StatusPaused},
		{"short", types.KindShortTerm, types.StatusActive},
	} {
		g := testGoal("user-1", spec.title)
		g.Kind = spec.kind
		g.Status = spec.status
		if _, err := db.Save(ctx, g); err != nil {
			t.Fatal(err)
		}
	}

	candidates, err := db.FetchLongTermCandidates(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Title != "Alpha" || candidates[1].Title != "beta" {
		t.Errorf("candidates not sorted by title: %q, %q", candidates[0].Title, candidates[1].Title)
	}
}

func TestStore_Delete_Idempotent(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	saved, err := db.Save(ctx, testGoal("user-1", "temp"))
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Delete(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Fetch(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Second delete is a no-op
	if err := db.Delete(ctx, saved.ID); err != nil {
		t.Errorf("repeat delete should not error, got %v", err)
	}
}

func TestStore_RoundTrip_OptionalFields(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	target := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	g := testGoal("user-1", "Ship v2")
	g.Description = "the big one"
	g.Category = "work"
	g.TargetDate = &target
	g.Progress = 40

	saved, err := db.Save(ctx, g)
	if err != nil {
		t.Fatal(err)
	}

	fetched, err := db.Fetch(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}

	if fetched.TargetDate == nil || !fetched.TargetDate.Equal(target) {
		t.Errorf("TargetDate not preserved: %v", fetched.TargetDate)
	}
	if fetched.Description != "the big one" || fetched.Category != "work" || fetched.Progress != 40 {
		t.Errorf("fields not preserved: %+v", fetched)
	}
	if fetched.ParentGoalID != nil {
		t.Errorf("ParentGoalID should be nil, got %v", *fetched.ParentGoalID)
	}
}

func TestStore_Snapshot(t *testing.T) {
	dir := t.TempDir()
	db, err := NewSQLiteStore(dir + "/goals.db")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Save(ctx, testGoal("user-1", "snapshot me")); err != nil {
		t.Fatal(err)
	}

	dest := dir + "/backup.db"
	if err := db.Snapshot(ctx, dest); err != nil {
		t.Fatal(err)
	}

	// The snapshot must be an openable database containing the goal.
	copyDB, err := NewSQLiteStore(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer copyDB.Close()

	goals, err := copyDB.FetchAll(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(goals) != 1 || goals[0].Title != "snapshot me" {
		t.Errorf("snapshot content mismatch: %+v", goals)
	}
}
