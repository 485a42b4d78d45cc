package patches

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/command"
	"github.com/nxtscape/nxbuild/pkg/datastore"
	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/types"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

// Applier applies and reverses patch stacks.
type Applier struct {
	runner command.Runner
	fs     types.FS
	store  datastore.DataStore
	logger zerolog.Logger
}

// NewApplier creates an Applier. The store tracks applied-patch
// identity across runs; it must live inside the working tree so a full
// re-checkout naturally resets it.
func NewApplier(runner command.Runner, fs types.FS, store datastore.DataStore) *Applier {
	return &Applier{
		runner: runner,
		fs:     fs,
		store:  store,
		logger: logging.GetLogger("patches"),
	}
}

// Apply applies the stack in ascending ID order. The returned report is
// meaningful even on error: it lists exactly which patches touched the
// tree before the failure.
//
// Per patch: a recorded sentinel with the same content checksum means
// "already applied" and the patch is skipped without touching the tree.
// A modified or deleted target that does not exist in the tree is
// reported as PATCH_TARGET_MISSING — the patch is stale relative to the
// pinned revision. Any other git-apply failure is a conflict; the run
// stops immediately so the caller can re-sync and retry the full stack
// instead of limping forward with a half-patched tree.
func (a *Applier) Apply(ctx context.Context, tree *worktree.Tree, stack []types.Patch) (types.ApplyReport, error) {
	var report types.ApplyReport

	for _, patch := range stack {
		content, err := a.fs.ReadFile(patch.Path)
		if err != nil {
			return report, errors.Wrapf(err, errors.ErrPatchConflict, "cannot read patch %s", patch.ID)
		}
		checksum := Checksum(content)

		applied, err := a.store.IsApplied(patch.ID, checksum)
		if err != nil {
			return report, errors.Wrapf(err, errors.ErrPatchConflict, "cannot query applied state for %s", patch.ID)
		}
		if applied {
			a.logger.Debug().Str("patch", patch.ID).Msg("Already applied, skipping")
			report.AlreadyApplied = append(report.AlreadyApplied, patch.ID)
			continue
		}

		if missing := missingTargets(a.fs, tree.Root(), content); len(missing) > 0 {
			report.Failed = patch.ID
			return report, errors.Newf(errors.ErrPatchTargetMissing,
				"patch %s targets missing files (stale against pinned revision?)", patch.ID).
				WithDetail("patch", patch.ID).
				WithDetail("missing", missing).
				WithDetail("applied", report.Applied)
		}

		a.logger.Info().Str("patch", patch.ID).Msg("Applying patch")
		out, err := a.runner.Run(ctx, tree.Root(), "git", "apply", "--3way", patch.Path)
		if err != nil {
			report.Failed = patch.ID
			return report, errors.Wrapf(err, errors.ErrPatchConflict,
				"patch %s did not apply cleanly", patch.ID).
				WithDetail("patch", patch.ID).
				WithDetail("applied", report.Applied).
				WithDetail("already_applied", report.AlreadyApplied).
				WithDetail("output", strings.TrimSpace(string(out)))
		}

		if err := a.store.RecordApplied(patch.ID, checksum); err != nil {
			report.Failed = patch.ID
			return report, errors.Wrapf(err, errors.ErrPatchConflict,
				"patch %s applied but could not be recorded", patch.ID)
		}
		report.Applied = append(report.Applied, patch.ID)
	}

	return report, nil
}

// Reverse unapplies the stack in strictly descending ID order, the
// exact opposite of application. Patches with no sentinel are skipped.
// The first patch that does not reverse cleanly stops the run.
func (a *Applier) Reverse(ctx context.Context, tree *worktree.Tree, stack []types.Patch) (types.ApplyReport, error) {
	var report types.ApplyReport

	for i := len(stack) - 1; i >= 0; i-- {
		patch := stack[i]

		content, err := a.fs.ReadFile(patch.Path)
		if err != nil {
			return report, errors.Wrapf(err, errors.ErrPatchReverse, "cannot read patch %s", patch.ID)
		}
		checksum := Checksum(content)

		applied, err := a.store.IsApplied(patch.ID, checksum)
		if err != nil {
			return report, errors.Wrapf(err, errors.ErrPatchReverse, "cannot query applied state for %s", patch.ID)
		}
		if !applied {
			a.logger.Debug().Str("patch", patch.ID).Msg("Not applied, nothing to reverse")
			continue
		}

		a.logger.Info().Str("patch", patch.ID).Msg("Reversing patch")
		out, err := a.runner.Run(ctx, tree.Root(), "git", "apply", "--reverse", patch.Path)
		if err != nil {
			report.Failed = patch.ID
			return report, errors.Wrapf(err, errors.ErrPatchReverse,
				"patch %s did not reverse cleanly", patch.ID).
				WithDetail("patch", patch.ID).
				WithDetail("reversed", report.Reversed).
				WithDetail("output", strings.TrimSpace(string(out)))
		}

		if err := a.store.ClearApplied(patch.ID); err != nil {
			report.Failed = patch.ID
			return report, errors.Wrapf(err, errors.ErrPatchReverse,
				"patch %s reversed but sentinel could not be cleared", patch.ID)
		}
		report.Reversed = append(report.Reversed, patch.ID)
	}

	return report, nil
}
