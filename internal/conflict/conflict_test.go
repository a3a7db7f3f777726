package conflict

import (
	"testing"
	"time"

	"github.com/stridehq/stride/internal/types"
)

func TestResolve_TieFavorsLocal(t *testing.T) {
	at := time.Now().UTC()
	local := types.Goal{ID: "g", Title: "local", UpdatedAt: at}
	remote := types.Goal{ID: "g", Title: "remote", UpdatedAt: at}

	winner := Resolve(local, remote)
	if winner.Title != "local" {
		t.Errorf("tie should favor local, got %q", winner.Title)
	}
}

func TestResolve_NewerRemoteWins(t *testing.T) {
	at := time.Now().UTC()
	local := types.Goal{ID: "g", Title: "local", UpdatedAt: at}
	remote := types.Goal{ID: "g", Title: "remote", UpdatedAt: at.Add(time.Second)}

	winner := Resolve(local, remote)
	if winner.Title != "remote" {
		t.Errorf("newer remote should win, got %q", winner.Title)
	}
}

func TestResolve_NewerLocalWins(t *testing.T) {
	at := time.Now().UTC()
	local := types.Goal{ID: "g", Title: "local", UpdatedAt: at.Add(time.Second)}
	remote := types.Goal{ID: "g", Title: "remote", UpdatedAt: at}

	winner := Resolve(local, remote)
	if winner.Title != "local" {
		t.Errorf("newer local should win, got %q", winner.Title)
	}
}
