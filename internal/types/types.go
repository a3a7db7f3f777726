package types

import "time"

// GoalKind classifies a goal's time horizon.
type GoalKind string

const (
	KindLongTerm  GoalKind = "LONG_TERM"
	KindShortTerm GoalKind = "SHORT_TERM"
)

// GoalStatus represents the lifecycle state of a goal.
type GoalStatus string

const (
	StatusActive    GoalStatus = "ACTIVE"
	StatusCompleted GoalStatus = "COMPLETED"
	StatusPaused    GoalStatus = "PAUSED"
	StatusAbandoned GoalStatus = "ABANDONED"
)

// Goal is the unit of synchronization between the device cache and the
// remote goals service.
//
// ParentGoalID is non-nil only for short-term goals linked under a long-term
// parent. The hierarchy rule is authoritative on the remote side; the local
// cache may hold a transient violation between an optimistic link write and
// the remote confirmation.
type Goal struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	Kind         GoalKind   `json:"kind"`
	TargetDate   *time.Time `json:"target_date,omitempty"`
	Status       GoalStatus `json:"status"`
	Progress     int        `json:"progress"`
	ParentGoalID *string    `json:"parent_goal_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Dirty reports whether the goal carries local changes not yet confirmed by
// the remote service: never synced, or modified since the last sync.
func (g Goal) Dirty() bool {
	return g.LastSyncedAt == nil || g.LastSyncedAt.Before(g.UpdatedAt)
}

// Touch stamps UpdatedAt with the current time.
// Call on every local mutation before saving.
func (g *Goal) Touch() {
	g.UpdatedAt = time.Now().UTC()
}

// MarkSynced records a successful remote round-trip at the given time.
func (g *Goal) MarkSynced(at time.Time) {
	t := at.UTC()
	g.LastSyncedAt = &t
}

// ValidKind reports whether k is a recognized goal kind.
func ValidKind(k GoalKind) bool {
	return k == KindLongTerm || k == KindShortTerm
}

// ValidStatus reports whether s is a recognized goal status.
func ValidStatus(s GoalStatus) bool {
	switch s {
	case StatusActive, StatusCompleted, StatusPaused, StatusAbandoned:
		return true
	}
	return false
}

// GoalPage is the wire shape for list responses from the goals service.
type GoalPage struct {
	Goals []Goal    `json:"goals"`
	AsOf  time.Time `json:"as_of"`
}

// LinkRequest is the wire shape for link operations.
type LinkRequest struct {
	ParentGoalID string `json:"parent_goal_id"`
}
