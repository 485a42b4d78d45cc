// Package gitsync brings the working tree to the pinned upstream
// revision. It shells out to git and gclient; it never rewrites tree
// content itself. On success the tracked state of the tree exactly
// matches the pinned revision with no local modifications, which is the
// base the patch stack depends on.
package gitsync

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/command"
	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/types"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

// Syncer performs source tree synchronization.
type Syncer struct {
	runner command.Runner
	logger zerolog.Logger
}

// New creates a Syncer.
func New(runner command.Runner) *Syncer {
	return &Syncer{
		runner: runner,
		logger: logging.GetLogger("gitsync"),
	}
}

// Sync brings tree to revision, in order: optional hard reset of
// tracked files, optional clean of untracked files honoring the
// exclusion allow-list, fetch + checkout of the pinned revision, and a
// shallow gclient dependency sync.
func (s *Syncer) Sync(ctx context.Context, tree *worktree.Tree, revision types.UpstreamRevision, opts types.SyncOptions) (types.SyncResult, error) {
	result := types.SyncResult{Revision: revision}

	if revision.IsZero() {
		return result, errors.New(errors.ErrSyncFailed, "no upstream revision resolved")
	}

	if opts.ResetTracked {
		// Patch application is not reliably reversible after a partial
		// failure; a hard reset is the only trustworthy clean base.
		s.logger.Info().Msg("Discarding tracked modifications")
		if out, err := s.git(ctx, tree, "reset", "--hard", "HEAD"); err != nil {
			return result, s.gitErr(err, out, "git reset --hard failed")
		}
		result.DidReset = true
	}

	if opts.CleanUntracked {
		if len(opts.CleanExclude) == 0 {
			return result, errors.New(errors.ErrConfigValid, "cleanUntracked requires a non-empty exclusion allow-list")
		}
		args := []string{"clean", "-fdx"}
		for _, pattern := range opts.CleanExclude {
			args = append(args, "-e", pattern)
		}
		s.logger.Info().Strs("exclude", opts.CleanExclude).Msg("Removing untracked files")
		if out, err := s.git(ctx, tree, args...); err != nil {
			return result, s.gitErr(err, out, "git clean failed")
		}
		result.DidClean = true
	}

	s.logger.Info().Str("revision", revision.String()).Msg("Fetching tags")
	if out, err := s.git(ctx, tree, "fetch", "--tags", "--force"); err != nil {
		return result, s.gitErr(err, out, "git fetch failed")
	}
	if out, err := s.git(ctx, tree, "fetch", "origin", "--tags", "--force"); err != nil {
		return result, s.gitErr(err, out, "git fetch origin failed")
	}

	if err := s.verifyRevision(ctx, tree, revision); err != nil {
		return result, err
	}

	s.logger.Info().Str("revision", revision.String()).Msg("Checking out pinned revision")
	if out, err := s.git(ctx, tree, "checkout", "tags/"+revision.String()); err != nil {
		// The revision may be a branch or raw commit rather than a tag.
		if out2, err2 := s.git(ctx, tree, "checkout", revision.String()); err2 != nil {
			return result, s.gitErr(err2, append(out, out2...), "git checkout failed")
		}
	}

	if !opts.SkipDeps {
		// Shallow, history-free dependency sync. This forecloses deep
		// diffing inside sub-trees, which nothing here needs, and keeps
		// time and disk cost bounded.
		s.logger.Info().Msg("Syncing dependencies (this may take a while)")
		out, err := s.runner.Run(ctx, tree.Root(), "gclient", "sync", "-D", "--no-history", "--shallow")
		if err != nil {
			return result, errors.Wrap(err, errors.ErrSyncFailed, "gclient sync failed").
				WithDetail("output", tail(out))
		}
		result.DepsSynced = true
	}

	return result, nil
}

// verifyRevision confirms the pinned revision exists after fetch. The
// failure message includes the most recent tags so a stale pin is easy
// to spot.
func (s *Syncer) verifyRevision(ctx context.Context, tree *worktree.Tree, revision types.UpstreamRevision) error {
	if _, err := s.git(ctx, tree, "rev-parse", "--verify", revision.String()+"^{commit}"); err == nil {
		return nil
	}

	recent, _ := s.git(ctx, tree, "tag", "-l", "--sort=-version:refname")
	return errors.Newf(errors.ErrRevisionNotFound, "revision %s not found after fetch", revision).
		WithDetail("recent_tags", firstN(strings.Fields(string(recent)), 10))
}

func (s *Syncer) git(ctx context.Context, tree *worktree.Tree, args ...string) ([]byte, error) {
	return s.runner.Run(ctx, tree.Root(), "git", args...)
}

func (s *Syncer) gitErr(err error, out []byte, msg string) error {
	return errors.Wrap(err, errors.ErrSyncFailed, msg).WithDetail("output", tail(out))
}

// tail returns the last few lines of command output for error details.
func tail(out []byte) string {
	const maxLines = 20
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
