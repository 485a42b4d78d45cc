// Package gnargs composes the GN args.gn file for an output directory.
// Composition is verbatim concatenation of checked-in fragments: the
// base fragment, the variant fragment, an optional extra fragment, and
// a final target_cpu assignment. There is no merge logic; GN's own
// last-write-wins semantics resolve any key redefined by a later
// fragment.
package gnargs

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// Fragment file names inside the flags directory.
const (
	BaseFragment    = "base.gn"
	DebugFragment   = "debug.gn"
	ReleaseFragment = "release.gn"

	// ArgsFileName is the composed artifact inside the out directory.
	ArgsFileName = "args.gn"
)

// variantFragment maps a build type to its fragment file.
func variantFragment(variant types.BuildType) string {
	if variant == types.BuildTypeRelease {
		return ReleaseFragment
	}
	return DebugFragment
}

// Compose writes <outDir>/args.gn from the fragments in fragmentsDir.
// extraFile, when non-empty, is appended after the variant fragment.
// Base and variant fragments are required; a missing one means the
// fork checkout is incomplete and composition fails.
func Compose(fs types.FS, fragmentsDir string, variant types.BuildType, arch types.Architecture, extraFile, outDir string) error {
	logger := logging.GetLogger("gnargs")

	var buf bytes.Buffer
	for _, name := range []string{BaseFragment, variantFragment(variant)} {
		path := filepath.Join(fragmentsDir, name)
		data, err := fs.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrConfigLoad,
				"GN flag fragment %s is missing", path)
		}
		appendFragment(&buf, data)
	}

	if extraFile != "" {
		data, err := fs.ReadFile(extraFile)
		if err != nil {
			return errors.Wrapf(err, errors.ErrConfigLoad,
				"extra GN flag file %s is missing", extraFile)
		}
		appendFragment(&buf, data)
	}

	fmt.Fprintf(&buf, "target_cpu = %q\n", string(arch))

	if err := fs.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrBuildFailed, "cannot create output directory %s", outDir)
	}
	argsPath := filepath.Join(outDir, ArgsFileName)
	if err := fs.WriteFile(argsPath, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrBuildFailed, "cannot write %s", argsPath)
	}

	logger.Info().
		Str("args", argsPath).
		Str("variant", string(variant)).
		Str("arch", string(arch)).
		Msg("Composed GN args")
	return nil
}

// appendFragment copies a fragment verbatim, adding a newline only
// when the fragment lacks a final one, so concatenation never glues
// two assignments onto one line.
func appendFragment(buf *bytes.Buffer, data []byte) {
	buf.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
}
