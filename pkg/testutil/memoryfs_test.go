package testutil

import (
	"errors"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFSWriteAndRead(t *testing.T) {
	m := NewMemoryFS()
	require.NoError(t, m.MkdirAll("/work/chromium", 0755))
	require.NoError(t, m.WriteFile("/work/chromium/DEPS", []byte("deps"), 0644))

	data, err := m.ReadFile("/work/chromium/DEPS")
	require.NoError(t, err)
	assert.Equal(t, "deps", string(data))
}

func TestMemoryFSWriteRequiresParent(t *testing.T) {
	m := NewMemoryFS()
	err := m.WriteFile("/missing/file.txt", []byte("x"), 0644)
	assert.Error(t, err)
}

func TestMemoryFSStatMissing(t *testing.T) {
	m := NewMemoryFS()
	_, err := m.Stat("/nope")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFSReadDirSorted(t *testing.T) {
	m := NewMemoryFS()
	MustWriteFile(t, m, "/patches/0002-sidebar.patch", "b")
	MustWriteFile(t, m, "/patches/0001-branding.patch", "a")
	MustWriteFile(t, m, "/patches/nested/ignored.patch", "c")

	entries, err := m.ReadDir("/patches")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "0001-branding.patch", entries[0].Name())
	assert.Equal(t, "0002-sidebar.patch", entries[1].Name())
	assert.Equal(t, "nested", entries[2].Name())
	assert.True(t, entries[2].IsDir())
}

func TestMemoryFSRemoveAll(t *testing.T) {
	m := NewMemoryFS()
	MustWriteFile(t, m, "/out/Default_arm64/args.gn", "x")

	require.NoError(t, m.RemoveAll("/out"))
	assert.False(t, Exists(m, "/out"))
	assert.False(t, Exists(m, "/out/Default_arm64/args.gn"))

	// Missing path is not an error, matching os.RemoveAll.
	assert.NoError(t, m.RemoveAll("/out"))
}

func TestMemoryFSRenameSubtree(t *testing.T) {
	m := NewMemoryFS()
	MustWriteFile(t, m, "/a/b/c.txt", "body")

	require.NoError(t, m.Rename("/a", "/z"))
	assert.False(t, Exists(m, "/a/b/c.txt"))
	assert.Equal(t, "body", MustReadFile(t, m, "/z/b/c.txt"))
}

func TestMemoryFSWriteCount(t *testing.T) {
	m := NewMemoryFS()
	before := m.WriteCount()
	MustWriteFile(t, m, "/x/y.txt", "1")
	assert.Greater(t, m.WriteCount(), before)

	// Reads must not bump the write counter.
	mid := m.WriteCount()
	_, _ = m.ReadFile("/x/y.txt")
	_, _ = m.Stat("/x/y.txt")
	assert.Equal(t, mid, m.WriteCount())
}

func TestMemoryFSInjectError(t *testing.T) {
	m := NewMemoryFS()
	boom := errors.New("disk on fire")
	m.InjectError("/work/args.gn", boom)

	require.NoError(t, m.MkdirAll("/work", 0755))
	err := m.WriteFile("/work/args.gn", []byte("x"), 0644)
	assert.ErrorIs(t, err, boom)
}

func TestMemoryFSConcurrentReads(t *testing.T) {
	m := NewMemoryFS()
	MustWriteFile(t, m, "/src/a.txt", "a")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = m.ReadFile("/src/a.txt")
				_, _ = m.Stat("/src/a.txt")
			}
		}()
	}
	wg.Wait()
}
