package types

import (
	"testing"
	"time"
)

func TestGoal_Dirty_NeverSynced(t *testing.T) {
	g := Goal{UpdatedAt: time.Now().UTC()}
	if !g.Dirty() {
		t.Error("goal with nil LastSyncedAt should be dirty")
	}
}

func TestGoal_Dirty_SyncedBeforeUpdate(t *testing.T) {
	now := time.Now().UTC()
	synced := now.Add(-time.Minute)
	g := Goal{UpdatedAt: now, LastSyncedAt: &synced}
	if !g.Dirty() {
		t.Error("goal synced before its last update should be dirty")
	}
}

func TestGoal_Dirty_SyncedAtOrAfterUpdate(t *testing.T) {
	now := time.Now().UTC()
	g := Goal{UpdatedAt: now, LastSyncedAt: &now}
	if g.Dirty() {
		t.Error("goal synced at its update time should be clean")
	}

	later := now.Add(time.Second)
	g.LastSyncedAt = &later
	if g.Dirty() {
		t.Error("goal synced after its update time should be clean")
	}
}

func TestGoal_Touch_AdvancesUpdatedAt(t *testing.T) {
	g := Goal{UpdatedAt: time.Now().UTC().Add(-time.Hour)}
	before := g.UpdatedAt

	g.Touch()
	if !g.UpdatedAt.After(before) {
		t.Errorf("Touch() did not advance UpdatedAt: before=%v after=%v", before, g.UpdatedAt)
	}
}

func TestGoal_MarkSynced_ClearsDirty(t *testing.T) {
	g := Goal{UpdatedAt: time.Now().UTC()}
	g.MarkSynced(g.UpdatedAt)

	if g.Dirty() {
		t.Error("goal should be clean after MarkSynced at UpdatedAt")
	}
}

func TestValidKind(t *testing.T) {
	if !ValidKind(KindLongTerm) || !ValidKind(KindShortTerm) {
		t.Error("known kinds should validate")
	}
	if ValidKind(GoalKind("WEEKLY")) {
		t.Error("unknown kind should not validate")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []GoalStatus{StatusActive, StatusCompleted, StatusPaused, StatusAbandoned} {
		if !ValidStatus(s) {
			t.Errorf("status %q should validate", s)
		}
	}
	if ValidStatus(GoalStatus("ARCHIVED")) {
		t.Error("unknown status should not validate")
	}
}
