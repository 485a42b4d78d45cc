// Package datastore tracks which patches have been applied to the
// working tree. Each applied patch leaves a sentinel file recording the
// patch content checksum, so a re-run can tell "already applied" from
// "patch changed since it was applied" without re-deriving state from
// tree content inspection.
package datastore

// DataStore manages nxbuild's applied-patch state on the filesystem.
type DataStore interface {
	// RecordApplied marks a patch as applied with its content checksum.
	RecordApplied(patchID, checksum string) error

	// IsApplied reports whether a patch with this exact checksum was
	// recorded as applied. A sentinel with a different checksum does
	// not count: an edited patch must be re-applied.
	IsApplied(patchID, checksum string) (bool, error)

	// ClearApplied removes the sentinel for a patch, typically after a
	// successful reverse.
	ClearApplied(patchID string) error

	// AppliedIDs returns all recorded patch IDs, sorted ascending.
	AppliedIDs() ([]string, error)
}
