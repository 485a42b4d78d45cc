package patches

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxtscape/nxbuild/pkg/command"
	"github.com/nxtscape/nxbuild/pkg/datastore"
	nxerrors "github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/testutil"
	"github.com/nxtscape/nxbuild/pkg/types"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

type fixture struct {
	fs      *testutil.MemoryFS
	rec     *command.Recorder
	applier *Applier
	tree    *worktree.Tree
	stack   []types.Patch
}

// newFixture sets up a three-patch stack whose targets exist in /src.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := testutil.NewMemoryFS()

	testutil.MustWriteFile(t, fs, "/src/chrome/a.cc", "a")
	testutil.MustWriteFile(t, fs, "/src/chrome/b.cc", "b")
	testutil.MustWriteFile(t, fs, "/src/chrome/c.cc", "c")

	testutil.MustWriteFile(t, fs, "/fork/patches/0001-a.patch", "--- a/chrome/a.cc\n+++ b/chrome/a.cc\n")
	testutil.MustWriteFile(t, fs, "/fork/patches/0002-b.patch", "--- a/chrome/b.cc\n+++ b/chrome/b.cc\n")
	testutil.MustWriteFile(t, fs, "/fork/patches/0003-c.patch", "--- a/chrome/c.cc\n+++ b/chrome/c.cc\n")

	stack, err := Discover(fs, "/fork/patches")
	require.NoError(t, err)
	require.Len(t, stack, 3)

	rec := command.NewRecorder()
	store := datastore.New(fs, "/src/.nxbuild/applied")
	return &fixture{
		fs:      fs,
		rec:     rec,
		applier: NewApplier(rec, fs, store),
		tree:    worktree.New("/src", fs),
		stack:   stack,
	}
}

func TestApplyFullStack(t *testing.T) {
	f := newFixture(t)

	report, err := f.applier.Apply(context.Background(), f.tree, f.stack)
	require.NoError(t, err)

	assert.Equal(t, []string{"0001-a", "0002-b", "0003-c"}, report.Applied)
	assert.Empty(t, report.AlreadyApplied)
	assert.Empty(t, report.Failed)
	assert.True(t, report.Touched())

	assert.Equal(t, []string{
		"git apply --3way /fork/patches/0001-a.patch",
		"git apply --3way /fork/patches/0002-b.patch",
		"git apply --3way /fork/patches/0003-c.patch",
	}, f.rec.Lines())
}

func TestApplyTwiceIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, f.tree, f.stack)
	require.NoError(t, err)

	callsAfterFirst := f.rec.CallCount()
	writesAfterFirst := f.fs.WriteCount()

	report, err := f.applier.Apply(ctx, f.tree, f.stack)
	require.NoError(t, err)

	assert.Empty(t, report.Applied)
	assert.Equal(t, []string{"0001-a", "0002-b", "0003-c"}, report.AlreadyApplied)
	assert.False(t, report.Touched())
	assert.Equal(t, callsAfterFirst, f.rec.CallCount(), "second apply must not invoke git")
	assert.Equal(t, writesAfterFirst, f.fs.WriteCount(), "second apply must not mutate any file")
}

func TestApplyEditedPatchReapplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, f.tree, f.stack)
	require.NoError(t, err)

	// Author edits patch 0002 in place: its recorded checksum no longer
	// matches, so only 0002 re-applies.
	require.NoError(t, f.fs.WriteFile("/fork/patches/0002-b.patch",
		[]byte("--- a/chrome/b.cc\n+++ b/chrome/b.cc\n@@ changed\n"), 0644))

	report, err := f.applier.Apply(ctx, f.tree, f.stack)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002-b"}, report.Applied)
	assert.Equal(t, []string{"0001-a", "0003-c"}, report.AlreadyApplied)
}

func TestApplyStopsAtConflict(t *testing.T) {
	f := newFixture(t)
	f.rec.Respond("0002-b.patch", []byte("error: patch failed: chrome/b.cc:1"), errors.New("exit status 1"))

	report, err := f.applier.Apply(context.Background(), f.tree, f.stack)
	require.Error(t, err)

	assert.True(t, nxerrors.IsErrorCode(err, nxerrors.ErrPatchConflict))
	assert.Equal(t, "0002-b", nxerrors.GetDetail(err, "patch"))
	assert.Equal(t, []string{"0001-a"}, nxerrors.GetDetail(err, "applied"))

	assert.Equal(t, []string{"0001-a"}, report.Applied)
	assert.Equal(t, "0002-b", report.Failed)

	for _, line := range f.rec.Lines() {
		assert.NotContains(t, line, "0003-c", "patches after a failure must never be attempted")
	}
}

func TestApplyMissingTarget(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.fs.Remove("/src/chrome/b.cc"))

	report, err := f.applier.Apply(context.Background(), f.tree, f.stack)
	require.Error(t, err)

	assert.True(t, nxerrors.IsErrorCode(err, nxerrors.ErrPatchTargetMissing))
	assert.Equal(t, []string{"chrome/b.cc"}, nxerrors.GetDetail(err, "missing"))
	assert.Equal(t, []string{"0001-a"}, report.Applied)
	assert.Equal(t, "0002-b", report.Failed)

	// git apply must not run for the stale patch at all.
	assert.Equal(t, []string{"git apply --3way /fork/patches/0001-a.patch"}, f.rec.Lines())
}

func TestReverseDescendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, f.tree, f.stack)
	require.NoError(t, err)
	applyCalls := f.rec.CallCount()

	report, err := f.applier.Reverse(ctx, f.tree, f.stack)
	require.NoError(t, err)
	assert.Equal(t, []string{"0003-c", "0002-b", "0001-a"}, report.Reversed)

	lines := f.rec.Lines()[applyCalls:]
	assert.Equal(t, []string{
		"git apply --reverse /fork/patches/0003-c.patch",
		"git apply --reverse /fork/patches/0002-b.patch",
		"git apply --reverse /fork/patches/0001-a.patch",
	}, lines)

	// Reversal cleared the sentinels: a fresh apply re-applies everything.
	report, err = f.applier.Apply(ctx, f.tree, f.stack)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001-a", "0002-b", "0003-c"}, report.Applied)
	assert.Empty(t, report.AlreadyApplied)
}

func TestReverseSkipsUnapplied(t *testing.T) {
	f := newFixture(t)

	report, err := f.applier.Reverse(context.Background(), f.tree, f.stack)
	require.NoError(t, err)
	assert.Empty(t, report.Reversed)
	assert.Equal(t, 0, f.rec.CallCount())
}

func TestReverseFailsFast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.applier.Apply(ctx, f.tree, f.stack)
	require.NoError(t, err)

	f.rec.Respond("--reverse /fork/patches/0002-b.patch", []byte("error: patch does not apply"), errors.New("exit status 1"))

	report, err := f.applier.Reverse(ctx, f.tree, f.stack)
	require.Error(t, err)
	assert.True(t, nxerrors.IsErrorCode(err, nxerrors.ErrPatchReverse))
	assert.Equal(t, []string{"0003-c"}, report.Reversed)
	assert.Equal(t, "0002-b", report.Failed)

	for _, line := range f.rec.Lines() {
		assert.NotContains(t, line, "--reverse /fork/patches/0001-a.patch",
			"reversal must stop at the first failure")
	}
}

func TestApplyEmptyStack(t *testing.T) {
	f := newFixture(t)
	report, err := f.applier.Apply(context.Background(), f.tree, nil)
	require.NoError(t, err)
	assert.False(t, report.Touched())
	assert.Equal(t, 0, f.rec.CallCount())
}
