package datastore

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nxtscape/nxbuild/pkg/types"
)

type filesystemDataStore struct {
	fs  types.FS
	dir string
}

// New creates a DataStore backed by sentinel files under dir, one file
// per applied patch.
func New(filesystem types.FS, dir string) DataStore {
	return &filesystemDataStore{
		fs:  filesystem,
		dir: dir,
	}
}

func (s *filesystemDataStore) sentinelPath(patchID string) string {
	return filepath.Join(s.dir, patchID)
}

// RecordApplied writes "checksum|timestamp" into the patch's sentinel.
func (s *filesystemDataStore) RecordApplied(patchID, checksum string) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create sentinel directory: %w", err)
	}

	content := fmt.Sprintf("%s|%s", checksum, time.Now().Format(time.RFC3339))
	if err := s.fs.WriteFile(s.sentinelPath(patchID), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write sentinel for %s: %w", patchID, err)
	}
	return nil
}

func (s *filesystemDataStore) IsApplied(patchID, checksum string) (bool, error) {
	data, err := s.fs.ReadFile(s.sentinelPath(patchID))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read sentinel for %s: %w", patchID, err)
	}

	recorded, _, _ := strings.Cut(strings.TrimSpace(string(data)), "|")
	return recorded == checksum, nil
}

func (s *filesystemDataStore) ClearApplied(patchID string) error {
	if err := s.fs.Remove(s.sentinelPath(patchID)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove sentinel for %s: %w", patchID, err)
	}
	return nil
}

func (s *filesystemDataStore) AppliedIDs() ([]string, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sentinels: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}
