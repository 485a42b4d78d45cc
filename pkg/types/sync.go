package types

// SyncOptions controls how the working tree is brought to the pinned
// revision. The zero value performs a plain fetch and checkout with no
// destructive preparation.
type SyncOptions struct {
	// ResetTracked discards all tracked modifications before syncing.
	// This is the only reliable way to get a clean base after a prior
	// partial patch application.
	ResetTracked bool

	// CleanUntracked removes untracked and ignored files under the
	// tree, except paths matching the exclusion allow-list. The
	// allow-list must be non-empty when this is set.
	CleanUntracked bool

	// CleanExclude is the exclusion allow-list for CleanUntracked.
	// Entries are git clean -e patterns relative to the tree root.
	CleanExclude []string

	// SkipDeps skips the gclient dependency sync step.
	SkipDeps bool
}

// SyncResult reports what a sync actually did.
type SyncResult struct {
	// Revision is the revision the tree was switched to.
	Revision UpstreamRevision

	// DidReset is true if tracked modifications were discarded.
	DidReset bool

	// DidClean is true if untracked files were removed.
	DidClean bool

	// DepsSynced is true if the gclient dependency sync ran.
	DepsSynced bool
}
