// Package paths provides centralized path handling for nxbuild. All
// locations inside the fork repository and the Chromium working tree
// are derived here, so the rest of the codebase never concatenates
// path fragments itself.
package paths

import (
	"os"
	"path/filepath"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// Environment variable names
const (
	// EnvChromiumSrc overrides the Chromium working tree location
	EnvChromiumSrc = "NXBUILD_CHROMIUM_SRC"
)

// Fixed locations inside the fork repository. These define the repo
// layout and are not user-configurable; configurable locations belong
// in pkg/config.
const (
	// UpstreamVersionFile pins the Chromium revision the fork builds against
	UpstreamVersionFile = "CHROMIUM_VERSION"

	// ForkVersionFile holds the fork's own release version
	ForkVersionFile = "NXTSCAPE_VERSION"

	// DefaultChromiumDir is the working tree checkout inside the fork repo
	DefaultChromiumDir = "chromium_src"

	// PatchesDirName holds the ordered patch stack
	PatchesDirName = "patches"

	// ResourcesDirName holds fork-owned overlay assets
	ResourcesDirName = "resources"

	// GnFlagsDirName holds the GN flag fragments
	GnFlagsDirName = "build/flags"

	// ProjectConfigFile is the checked-in project configuration
	ProjectConfigFile = "nxbuild.toml"

	// StateDirName is the nxbuild state directory inside the working tree
	StateDirName = ".nxbuild"

	// AppliedDirName is the applied-patch sentinel directory under StateDirName
	AppliedDirName = "applied"

	// LockFileName is the advisory lock file at the working tree root
	LockFileName = ".nxbuild.lock"

	// SparkleDirName is where the Sparkle framework lands inside the tree
	SparkleDirName = "third_party/sparkle"
)

// Paths resolves all fixed locations for one build invocation
type Paths struct {
	root        string
	chromiumSrc string
}

// New creates a Paths rooted at the fork repository. If chromiumSrc is
// empty, the NXBUILD_CHROMIUM_SRC environment variable and then the
// default in-repo checkout location are used, in that order.
func New(root, chromiumSrc string) (*Paths, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot determine working directory")
		}
		root = wd
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "invalid root path %s", root)
	}

	if chromiumSrc == "" {
		chromiumSrc = os.Getenv(EnvChromiumSrc)
	}
	if chromiumSrc == "" {
		chromiumSrc = filepath.Join(absRoot, DefaultChromiumDir)
	}
	absSrc, err := filepath.Abs(chromiumSrc)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "invalid chromium source path %s", chromiumSrc)
	}

	return &Paths{root: absRoot, chromiumSrc: absSrc}, nil
}

// Root returns the fork repository root.
func (p *Paths) Root() string {
	return p.root
}

// ChromiumSrc returns the Chromium working tree root.
func (p *Paths) ChromiumSrc() string {
	return p.chromiumSrc
}

// UpstreamVersionPath returns the pinned Chromium version file.
func (p *Paths) UpstreamVersionPath() string {
	return filepath.Join(p.root, UpstreamVersionFile)
}

// ForkVersionPath returns the fork version file.
func (p *Paths) ForkVersionPath() string {
	return filepath.Join(p.root, ForkVersionFile)
}

// PatchesDir returns the patch stack directory.
func (p *Paths) PatchesDir() string {
	return filepath.Join(p.root, PatchesDirName)
}

// ResourcesDir returns the overlay assets directory.
func (p *Paths) ResourcesDir() string {
	return filepath.Join(p.root, ResourcesDirName)
}

// GnFlagsDir returns the GN flag fragment directory.
func (p *Paths) GnFlagsDir() string {
	return filepath.Join(p.root, GnFlagsDirName)
}

// ProjectConfigPath returns the checked-in nxbuild.toml location.
func (p *Paths) ProjectConfigPath() string {
	return filepath.Join(p.root, ProjectConfigFile)
}

// StateDir returns the nxbuild state directory inside the working tree.
func (p *Paths) StateDir() string {
	return filepath.Join(p.chromiumSrc, StateDirName)
}

// AppliedDir returns the applied-patch sentinel directory.
func (p *Paths) AppliedDir() string {
	return filepath.Join(p.StateDir(), AppliedDirName)
}

// LockPath returns the advisory lock file for the working tree.
func (p *Paths) LockPath() string {
	return filepath.Join(p.chromiumSrc, LockFileName)
}

// SparkleDir returns the Sparkle framework directory inside the tree.
func (p *Paths) SparkleDir() string {
	return filepath.Join(p.chromiumSrc, SparkleDirName)
}

// OutDir returns the build output directory for an architecture.
func (p *Paths) OutDir(arch types.Architecture) string {
	return filepath.Join(p.chromiumSrc, filepath.FromSlash(types.OutDirName(arch)))
}
