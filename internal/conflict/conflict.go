// Package conflict decides between two versions of the same goal during
// reconciliation. The policy is whole-entity last-writer-wins; there is no
// field-level merge. A richer policy plugs in here without touching the
// repository's call sites.
package conflict

import "github.com/stridehq/stride/internal/types"

// Resolve returns whichever version has the greater UpdatedAt.
// Ties favor the local copy.
func Resolve(local, remote types.Goal) types.Goal {
	if remote.UpdatedAt.After(local.UpdatedAt) {
		return remote
	}
	return local
}
