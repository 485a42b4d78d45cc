package types

import "fmt"

// BuildType selects the variant flag fragment used for GN args.
type BuildType string

const (
	BuildTypeDebug   BuildType = "debug"
	BuildTypeRelease BuildType = "release"
)

// ParseBuildType validates a build type string.
func ParseBuildType(s string) (BuildType, error) {
	switch BuildType(s) {
	case BuildTypeDebug, BuildTypeRelease:
		return BuildType(s), nil
	}
	return "", fmt.Errorf("invalid build type %q (want debug or release)", s)
}

// Architecture is the target CPU for a build. Each architecture gets
// its own output directory so arm64 and x64 builds never share state.
type Architecture string

const (
	ArchArm64 Architecture = "arm64"
	ArchX64   Architecture = "x64"
)

// ParseArchitecture validates an architecture string.
func ParseArchitecture(s string) (Architecture, error) {
	switch Architecture(s) {
	case ArchArm64, ArchX64:
		return Architecture(s), nil
	}
	return "", fmt.Errorf("invalid architecture %q (want arm64 or x64)", s)
}

// OutDirName returns the build output directory for an architecture,
// relative to the working tree root.
func OutDirName(arch Architecture) string {
	return "out/Default_" + string(arch)
}

// OverlaySpec names a fork-owned resource directory and its fixed
// destination inside the working tree. Copy semantics are recursive
// overwrite-in-place; pre-existing sibling files at the destination are
// never deleted.
type OverlaySpec struct {
	// Name identifies the overlay in logs and errors.
	Name string

	// Source is the overlay directory, relative to the fork root.
	Source string

	// Dest is the destination, relative to the working tree root.
	Dest string

	// Optional overlays log a warning when the source directory is
	// missing instead of failing the build.
	Optional bool
}
