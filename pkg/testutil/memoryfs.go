package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryFS implements the types.FS interface with in-memory storage.
// Paths are normalized to slash-separated absolute form, so tests can
// mix absolute and relative paths freely.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]*fileNode

	// Error injection: operations on these paths fail with the mapped error.
	errorPaths map[string]error

	// Statistics. Atomic so reads can count under the shared lock.
	readCount  atomic.Int64
	writeCount atomic.Int64
}

// fileNode represents a file or directory in memory
type fileNode struct {
	name    string
	mode    os.FileMode
	modTime time.Time
	content []byte
	isDir   bool
}

// NewMemoryFS creates a new in-memory filesystem with a root directory
func NewMemoryFS() *MemoryFS {
	root := &fileNode{
		name:    "/",
		mode:    0755 | os.ModeDir,
		modTime: time.Now(),
		isDir:   true,
	}
	return &MemoryFS{
		files:      map[string]*fileNode{"/": root},
		errorPaths: make(map[string]error),
	}
}

// InjectError makes every operation on path fail with err.
func (m *MemoryFS) InjectError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorPaths[m.normalizePath(path)] = err
}

// WriteCount returns the number of mutating operations performed.
func (m *MemoryFS) WriteCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(m.writeCount.Load())
}

func (m *MemoryFS) normalizePath(path string) string {
	if !filepath.IsAbs(path) {
		path = "/" + path
	}
	return filepath.Clean(path)
}

func (m *MemoryFS) getNode(path string) (*fileNode, error) {
	path = m.normalizePath(path)
	if err, ok := m.errorPaths[path]; ok {
		return nil, err
	}
	node, exists := m.files[path]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return node, nil
}

// Stat returns file info for the given path
func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	return &memoryFileInfo{node: node}, nil
}

// Lstat is equivalent to Stat; MemoryFS has no symlinks
func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	return m.Stat(name)
}

// ReadFile reads the entire file content
func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.readCount.Add(1)

	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: errors.New("is a directory")}
	}

	out := make([]byte, len(node.content))
	copy(out, node.content)
	return out, nil
}

// WriteFile writes content to a file, creating it if needed. The parent
// directory must exist, matching os.WriteFile semantics.
func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.normalizePath(name)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}

	parent, exists := m.files[filepath.Dir(path)]
	if !exists || !parent.isDir {
		return &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if node, exists := m.files[path]; exists && node.isDir {
		return &fs.PathError{Op: "open", Path: name, Err: errors.New("is a directory")}
	}

	m.writeCount.Add(1)

	content := make([]byte, len(data))
	copy(content, data)
	m.files[path] = &fileNode{
		name:    filepath.Base(path),
		mode:    perm,
		modTime: time.Now(),
		content: content,
	}
	return nil
}

// MkdirAll creates a directory and all missing parents
func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.normalizePath(path)
	if err, ok := m.errorPaths[abs]; ok {
		return err
	}

	var parts []string
	for p := abs; p != "/"; p = filepath.Dir(p) {
		parts = append([]string{p}, parts...)
	}

	for _, p := range parts {
		if node, exists := m.files[p]; exists {
			if !node.isDir {
				return &fs.PathError{Op: "mkdir", Path: p, Err: errors.New("not a directory")}
			}
			continue
		}
		m.writeCount.Add(1)
		m.files[p] = &fileNode{
			name:    filepath.Base(p),
			mode:    perm | os.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		}
	}
	return nil
}

// ReadDir lists the immediate children of a directory, sorted by name
func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir := m.normalizePath(name)
	node, err := m.getNode(dir)
	if err != nil {
		return nil, err
	}
	if !node.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
	}

	var entries []fs.DirEntry
	prefix := dir
	if prefix != "/" {
		prefix += "/"
	}
	for path, child := range m.files {
		if path == dir || !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, &memoryDirEntry{node: child})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// Remove deletes a file or empty directory
func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.normalizePath(name)
	if err, ok := m.errorPaths[path]; ok {
		return err
	}

	node, exists := m.files[path]
	if !exists {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	if node.isDir {
		prefix := path + "/"
		for p := range m.files {
			if strings.HasPrefix(p, prefix) {
				return &fs.PathError{Op: "remove", Path: name, Err: errors.New("directory not empty")}
			}
		}
	}

	m.writeCount.Add(1)
	delete(m.files, path)
	return nil
}

// RemoveAll deletes a path and everything beneath it
func (m *MemoryFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.normalizePath(path)
	if err, ok := m.errorPaths[abs]; ok {
		return err
	}

	if _, exists := m.files[abs]; !exists {
		return nil // matches os.RemoveAll
	}

	m.writeCount.Add(1)
	delete(m.files, abs)
	prefix := abs + "/"
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	return nil
}

// Rename moves a file or directory subtree
func (m *MemoryFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldAbs := m.normalizePath(oldpath)
	newAbs := m.normalizePath(newpath)
	if err, ok := m.errorPaths[oldAbs]; ok {
		return err
	}

	node, exists := m.files[oldAbs]
	if !exists {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}

	m.writeCount.Add(1)
	delete(m.files, oldAbs)
	node.name = filepath.Base(newAbs)
	m.files[newAbs] = node

	prefix := oldAbs + "/"
	for p, child := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
			m.files[newAbs+"/"+strings.TrimPrefix(p, prefix)] = child
		}
	}
	return nil
}

// memoryFileInfo implements fs.FileInfo
type memoryFileInfo struct {
	node *fileNode
}

func (fi *memoryFileInfo) Name() string       { return fi.node.name }
func (fi *memoryFileInfo) Size() int64        { return int64(len(fi.node.content)) }
func (fi *memoryFileInfo) Mode() fs.FileMode  { return fi.node.mode }
func (fi *memoryFileInfo) ModTime() time.Time { return fi.node.modTime }
func (fi *memoryFileInfo) IsDir() bool        { return fi.node.isDir }
func (fi *memoryFileInfo) Sys() interface{}   { return nil }

// memoryDirEntry implements fs.DirEntry
type memoryDirEntry struct {
	node *fileNode
}

func (de *memoryDirEntry) Name() string { return de.node.name }
func (de *memoryDirEntry) IsDir() bool  { return de.node.isDir }
func (de *memoryDirEntry) Type() fs.FileMode {
	return de.node.mode.Type()
}
func (de *memoryDirEntry) Info() (fs.FileInfo, error) {
	return &memoryFileInfo{node: de.node}, nil
}
