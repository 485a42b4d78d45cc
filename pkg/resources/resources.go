// Package resources copies fork-owned asset overlays into the working
// tree. An overlay is a directory of files mirrored recursively onto a
// fixed destination: existing files are overwritten, files the overlay
// does not mention are left alone. Overlays run after patch application
// so patched BUILD.gn files can already reference the copied assets.
package resources

import (
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// Report summarizes one overlay pass.
type Report struct {
	// CopiedFiles is the total number of files written into the tree.
	CopiedFiles int

	// Skipped lists optional overlays whose source directory was absent.
	Skipped []string
}

// Copier applies overlays onto the working tree.
type Copier struct {
	fs     types.FS
	logger zerolog.Logger
}

// NewCopier creates a Copier.
func NewCopier(filesystem types.FS) *Copier {
	return &Copier{
		fs:     filesystem,
		logger: logging.GetLogger("resources"),
	}
}

// Copy applies each overlay in order. Sources are resolved against
// forkRoot and destinations against treeRoot. A required overlay with a
// missing source fails the run; an optional one is skipped with a
// warning. Later overlays win when two write the same destination path.
func (c *Copier) Copy(forkRoot, treeRoot string, overlays []types.OverlaySpec) (Report, error) {
	var report Report

	for _, overlay := range overlays {
		source := filepath.Join(forkRoot, filepath.FromSlash(overlay.Source))
		dest := filepath.Join(treeRoot, filepath.FromSlash(overlay.Dest))

		info, err := c.fs.Stat(source)
		if err != nil || !info.IsDir() {
			if overlay.Optional {
				c.logger.Warn().
					Str("overlay", overlay.Name).
					Str("source", source).
					Msg("Optional overlay source missing, skipping")
				report.Skipped = append(report.Skipped, overlay.Name)
				continue
			}
			return report, errors.Newf(errors.ErrResourceMissing,
				"overlay %s source %s does not exist", overlay.Name, source).
				WithDetail("overlay", overlay.Name).
				WithDetail("source", source)
		}

		copied, err := c.copyTree(source, dest)
		if err != nil {
			return report, errors.Wrapf(err, errors.ErrResourceMissing,
				"overlay %s failed copying into %s", overlay.Name, dest).
				WithDetail("overlay", overlay.Name)
		}

		c.logger.Info().
			Str("overlay", overlay.Name).
			Str("dest", dest).
			Int("files", copied).
			Msg("Overlay copied")
		report.CopiedFiles += copied
	}

	return report, nil
}

// copyTree mirrors source onto dest, overwriting files in place. It
// never deletes anything at dest.
func (c *Copier) copyTree(source, dest string) (int, error) {
	entries, err := c.fs.ReadDir(source)
	if err != nil {
		return 0, err
	}

	if err := c.fs.MkdirAll(dest, 0755); err != nil {
		return 0, err
	}

	copied := 0
	for _, entry := range entries {
		src := filepath.Join(source, entry.Name())
		dst := filepath.Join(dest, entry.Name())

		if entry.IsDir() {
			n, err := c.copyTree(src, dst)
			if err != nil {
				return copied, err
			}
			copied += n
			continue
		}

		if err := c.copyFile(src, dst, entry); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

func (c *Copier) copyFile(src, dst string, entry fs.DirEntry) error {
	data, err := c.fs.ReadFile(src)
	if err != nil {
		return err
	}

	perm := fs.FileMode(0644)
	if info, err := entry.Info(); err == nil && info.Mode().Perm() != 0 {
		perm = info.Mode().Perm()
	}
	return c.fs.WriteFile(dst, data, perm)
}
