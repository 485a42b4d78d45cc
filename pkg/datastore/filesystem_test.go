package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxtscape/nxbuild/pkg/testutil"
)

const appliedDir = "/src/.nxbuild/applied"

func TestRecordAndQuery(t *testing.T) {
	fs := testutil.NewMemoryFS()
	store := New(fs, appliedDir)

	applied, err := store.IsApplied("0001-branding", "abc")
	require.NoError(t, err)
	assert.False(t, applied)

	require.NoError(t, store.RecordApplied("0001-branding", "abc"))

	applied, err = store.IsApplied("0001-branding", "abc")
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestChecksumMismatchIsNotApplied(t *testing.T) {
	fs := testutil.NewMemoryFS()
	store := New(fs, appliedDir)

	require.NoError(t, store.RecordApplied("0001-branding", "abc"))

	// The patch file changed since it was applied: treat as unapplied.
	applied, err := store.IsApplied("0001-branding", "def")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestClearApplied(t *testing.T) {
	fs := testutil.NewMemoryFS()
	store := New(fs, appliedDir)

	require.NoError(t, store.RecordApplied("0002-sidebar", "abc"))
	require.NoError(t, store.ClearApplied("0002-sidebar"))

	applied, err := store.IsApplied("0002-sidebar", "abc")
	require.NoError(t, err)
	assert.False(t, applied)

	// Clearing an absent sentinel is not an error.
	assert.NoError(t, store.ClearApplied("0002-sidebar"))
}

func TestAppliedIDsSorted(t *testing.T) {
	fs := testutil.NewMemoryFS()
	store := New(fs, appliedDir)

	require.NoError(t, store.RecordApplied("0002-sidebar", "b"))
	require.NoError(t, store.RecordApplied("0001-branding", "a"))
	require.NoError(t, store.RecordApplied("0010-updater", "c"))

	ids, err := store.AppliedIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001-branding", "0002-sidebar", "0010-updater"}, ids)
}

func TestAppliedIDsEmptyWhenDirMissing(t *testing.T) {
	store := New(testutil.NewMemoryFS(), appliedDir)
	ids, err := store.AppliedIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
