package patches

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nxtscape/nxbuild/pkg/types"
)

// targetPaths extracts the tree-relative paths a unified diff modifies
// or deletes. Newly created files (old side /dev/null) are excluded:
// they have no pre-existing target to check.
func targetPaths(content []byte) []string {
	var targets []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(string(content), "\n") {
		if !strings.HasPrefix(line, "--- ") {
			continue
		}
		path := strings.TrimPrefix(line, "--- ")
		// Strip a trailing tab section (git writes none, GNU diff may).
		if i := strings.IndexByte(path, '\t'); i >= 0 {
			path = path[:i]
		}
		if path == "/dev/null" {
			continue
		}
		path = strings.TrimPrefix(path, "a/")
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		targets = append(targets, path)
	}
	return targets
}

// missingTargets returns the diff targets absent from the tree root.
func missingTargets(filesystem types.FS, root string, content []byte) []string {
	var missing []string
	for _, target := range targetPaths(content) {
		_, err := filesystem.Stat(filepath.Join(root, filepath.FromSlash(target)))
		if err != nil && stderrors.Is(err, fs.ErrNotExist) {
			missing = append(missing, target)
		}
	}
	return missing
}

func isNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}

func join(dir, name string) string {
	return filepath.Join(dir, name)
}
