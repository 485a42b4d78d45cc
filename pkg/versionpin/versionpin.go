// Package versionpin resolves the pinned upstream revision the fork is
// built against. The pin lives in a single version-controlled text file
// holding exactly one identifier; resolution happens once per build
// invocation and the value is reused for the whole run so concurrent
// edits to the pin file cannot split a build across two revisions.
package versionpin

import (
	"strings"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// Resolve reads the pinned upstream revision from path.
func Resolve(fs types.FS, path string) (types.UpstreamRevision, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrVersionPin, "cannot read pinned version file %s", path)
	}

	version := firstLine(string(data))
	if version == "" {
		return "", errors.Newf(errors.ErrVersionPin, "pinned version file %s is empty", path)
	}

	return types.UpstreamRevision(version), nil
}

// ResolveFork reads the fork's own release version. It shares the pin
// file format: one identifier, first line wins.
func ResolveFork(fs types.FS, path string) (string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrVersionPin, "cannot read fork version file %s", path)
	}

	version := firstLine(string(data))
	if version == "" {
		return "", errors.Newf(errors.ErrVersionPin, "fork version file %s is empty", path)
	}
	return version, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
