package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stridehq/stride/internal/remote/remotetest"
	"github.com/stridehq/stride/internal/types"
)

// newTestEnv points the CLI at an in-memory goals backend and an isolated
// cache database via environment variables.
func newTestEnv(t *testing.T) *remotetest.Server {
	t.Helper()

	backend := remotetest.New("test-key")
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	t.Setenv("STRIDE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STRIDE_REMOTE_URL", srv.URL)
	t.Setenv("STRIDE_API_KEY", "test-key")
	t.Setenv("STRIDE_OWNER_ID", "user-1")
	t.Setenv("STRIDE_DB_PATH", filepath.Join(t.TempDir(), "stride.db"))
	t.Setenv("STRIDE_LOG_LEVEL", "error")

	return backend
}

// executeCmd executes a subcommand with captured output.
func executeCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	// Reset package-level flag variables to their defaults.
	// Cobra parses into these variables, so stale values from previous
	// tests would leak if not reset.
	jsonOutput = false
	createDescription = ""
	createCategory = ""
	createKind = string(types.KindShortTerm)
	createTargetDate = ""
	updateTitle = ""
	updateDescription = ""
	updateCategory = ""
	updateStatus = ""
	updateProgress = -1

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(args)

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)

	return outBuf.String(), errBuf.String(), err
}

func seedGoal(backend *remotetest.Server, id, title string, kind types.GoalKind) {
	now := time.Now().UTC()
	backend.Seed(types.Goal{
		ID:        id,
		OwnerID:   "user-1",
		Title:     title,
		Kind:      kind,
		Status:    types.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func TestCreateAndList(t *testing.T) {
	backend := newTestEnv(t)

	stdout, _, err := executeCmd(t, "create", "Run a marathon", "--kind", "LONG_TERM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `Created goal "Run a marathon"`) {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout, "sync: synced") {
		t.Errorf("goal created online should report synced, got %q", stdout)
	}
	if backend.Count() != 1 {
		t.Errorf("backend should hold 1 goal, got %d", backend.Count())
	}

	stdout, _, err = executeCmd(t, "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Run a marathon") {
		t.Errorf("list missing created goal:\n%s", stdout)
	}
}

func TestCreate_InvalidKind(t *testing.T) {
	newTestEnv(t)

	_, _, err := executeCmd(t, "create", "Bad goal", "--kind", "MEDIUM_TERM")
	if err == nil {
		t.Fatal("expected error for invalid kind")
	}
	if !strings.Contains(err.Error(), "invalid kind") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestCreate_OfflineStaysPending(t *testing.T) {
	backend := newTestEnv(t)
	backend.FailWith(503)

	stdout, _, err := executeCmd(t, "create", "Read a book")
	if err != nil {
		t.Fatalf("offline create should not fail: %v", err)
	}
	if !strings.Contains(stdout, "sync: pending") {
		t.Errorf("offline create should report pending, got %q", stdout)
	}
}

func TestList_JSONOutput(t *testing.T) {
	backend := newTestEnv(t)
	seedGoal(backend, "g1", "Run a marathon", types.KindLongTerm)

	stdout, _, err := executeCmd(t, "list", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if total, _ := result["total"].(float64); int(total) != 1 {
		t.Errorf("JSON total = %v, want 1", result["total"])
	}
}

func TestUpdateAndComplete(t *testing.T) {
	backend := newTestEnv(t)
	seedGoal(backend, "g1", "Run a marathon", types.KindLongTerm)

	// Pull the goal into the cache first.
	if _, _, err := executeCmd(t, "list"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := executeCmd(t, "update", "g1", "--progress", "40")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Updated goal") {
		t.Errorf("stdout = %q", stdout)
	}
	if g, ok := backend.Goal("g1"); !ok || g.Progress != 40 {
		t.Errorf("backend progress = %+v", g)
	}

	stdout, _, err = executeCmd(t, "complete", "g1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Completed goal") {
		t.Errorf("stdout = %q", stdout)
	}
	if g, ok := backend.Goal("g1"); !ok || g.Status != types.StatusCompleted || g.Progress != 100 {
		t.Errorf("backend goal = %+v", g)
	}
}

func TestUpdate_NotCached(t *testing.T) {
	newTestEnv(t)

	_, _, err := executeCmd(t, "update", "missing", "--progress", "10")
	if err == nil {
		t.Fatal("expected error for uncached goal")
	}
	if !strings.Contains(err.Error(), "not found in local cache") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestDelete(t *testing.T) {
	backend := newTestEnv(t)
	seedGoal(backend, "g1", "Run a marathon", types.KindLongTerm)

	stdout, _, err := executeCmd(t, "delete", "g1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Deleted goal g1") {
		t.Errorf("stdout = %q", stdout)
	}
	if backend.Count() != 0 {
		t.Errorf("backend should be empty, got %d goals", backend.Count())
	}
}

func TestLinkAndUnlink(t *testing.T) {
	backend := newTestEnv(t)
	seedGoal(backend, "p1", "Get fit", types.KindLongTerm)
	seedGoal(backend, "c1", "Run 5k", types.KindShortTerm)

	stdout, _, err := executeCmd(t, "link", "c1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `Linked goal "Run 5k" under p1`) {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, err = executeCmd(t, "unlink", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `Unlinked goal "Run 5k"`) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestLink_RuleViolationIsReadable(t *testing.T) {
	backend := newTestEnv(t)
	seedGoal(backend, "p1", "Get fit", types.KindShortTerm) // wrong kind
	seedGoal(backend, "c1", "Run 5k", types.KindShortTerm)

	_, _, err := executeCmd(t, "link", "c1", "p1")
	if err == nil {
		t.Fatal("expected link rule violation")
	}
	// User-presentable message, not a wire code.
	if strings.Contains(err.Error(), "PARENT_NOT_LONG_TERM") {
		t.Errorf("error should not expose wire codes: %q", err.Error())
	}
}

func TestCandidates(t *testing.T) {
	backend := newTestEnv(t)
	seedGoal(backend, "p1", "Get fit", types.KindLongTerm)
	seedGoal(backend, "c1", "Run 5k", types.KindShortTerm)

	stdout, _, err := executeCmd(t, "candidates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Get fit") {
		t.Errorf("candidates missing long-term goal:\n%s", stdout)
	}
	if strings.Contains(stdout, "Run 5k") {
		t.Errorf("candidates should exclude short-term goals:\n%s", stdout)
	}
}

func TestSync_PushesOfflineEdits(t *testing.T) {
	backend := newTestEnv(t)
	backend.FailWith(503)

	if _, _, err := executeCmd(t, "create", "Read a book"); err != nil {
		t.Fatalf("offline create: %v", err)
	}
	if backend.Count() != 0 {
		t.Fatalf("backend should be empty while failing, got %d", backend.Count())
	}

	backend.Recover()
	stdout, _, err := executeCmd(t, "sync")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Reconcile complete.") {
		t.Errorf("stdout = %q", stdout)
	}
	if backend.Count() != 1 {
		t.Errorf("reconcile should push the offline goal, got %d", backend.Count())
	}
}

func TestBackup_WritesLocalSnapshot(t *testing.T) {
	newTestEnv(t)

	if _, _, err := executeCmd(t, "create", "Read a book"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := executeCmd(t, "backup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Snapshot written to") {
		t.Errorf("stdout = %q", stdout)
	}
	// No bucket configured, so no upload line.
	if strings.Contains(stdout, "Uploaded to bucket") {
		t.Errorf("should not report upload without a bucket:\n%s", stdout)
	}
}

func TestBackupURL_NotConfigured(t *testing.T) {
	newTestEnv(t)

	_, _, err := executeCmd(t, "backup", "url")
	if err == nil {
		t.Fatal("expected error without backup configuration")
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Errorf("error = %q", err.Error())
	}
}
