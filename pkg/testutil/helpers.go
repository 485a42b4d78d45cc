// Package testutil provides test helpers shared across nxbuild packages:
// an in-memory types.FS implementation and small setup conveniences.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// MustWriteFile writes a file into fs, creating parent directories.
func MustWriteFile(t *testing.T, fs *MemoryFS, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}

// MustMkdirAll creates a directory tree in fs.
func MustMkdirAll(t *testing.T, fs *MemoryFS, path string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(path, 0755))
}

// MustReadFile reads a file from fs, failing the test on error.
func MustReadFile(t *testing.T, fs *MemoryFS, path string) string {
	t.Helper()
	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// Exists reports whether a path exists in fs.
func Exists(fs *MemoryFS, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}
