// Package worktree models the mutable Chromium checkout that sync and
// patch application operate on. The tree is the single shared mutable
// resource in a build: an advisory file lock at its root keeps two
// concurrent invocations from interleaving sync and patch operations.
package worktree

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/paths"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// Tree is a handle to the working tree.
type Tree struct {
	root   string
	fs     types.FS
	lock   *flock.Flock
	logger zerolog.Logger
}

// New creates a Tree rooted at root. The checkout itself must already
// exist (bootstrap is outside nxbuild's scope); Validate reports
// whether it looks like one.
func New(root string, fs types.FS) *Tree {
	return &Tree{
		root:   root,
		fs:     fs,
		logger: logging.GetLogger("worktree"),
	}
}

// Root returns the working tree root path.
func (t *Tree) Root() string {
	return t.root
}

// Validate checks that the root exists and is a git checkout.
func (t *Tree) Validate() error {
	info, err := t.fs.Stat(t.root)
	if err != nil || !info.IsDir() {
		return errors.Newf(errors.ErrSyncFailed, "working tree %s does not exist; clone the upstream checkout first", t.root)
	}
	if _, err := t.fs.Stat(filepath.Join(t.root, ".git")); err != nil {
		return errors.Newf(errors.ErrSyncFailed, "%s is not a git checkout", t.root)
	}
	return nil
}

// Lock acquires the advisory lock for this tree. It fails immediately
// when another invocation holds the lock rather than queueing: the
// second build would only operate on a tree the first is mutating.
func (t *Tree) Lock() error {
	lockPath := filepath.Join(t.root, paths.LockFileName)
	fl := flock.New(lockPath)

	locked, err := fl.TryLock()
	if err != nil {
		return errors.Wrapf(err, errors.ErrLockHeld, "cannot acquire lock %s", lockPath)
	}
	if !locked {
		return errors.Newf(errors.ErrLockHeld, "another nxbuild invocation holds %s", lockPath)
	}

	t.lock = fl
	t.logger.Debug().Str("lock", lockPath).Msg("Acquired working tree lock")
	return nil
}

// Unlock releases the advisory lock. Safe to call when not locked.
func (t *Tree) Unlock() {
	if t.lock == nil {
		return
	}
	if err := t.lock.Unlock(); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to release working tree lock")
	}
	t.lock = nil
}
