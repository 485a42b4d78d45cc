package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxtscape/nxbuild/pkg/types"
)

func TestNewDefaultsChromiumSrc(t *testing.T) {
	p, err := New("/fork", "")
	require.NoError(t, err)

	assert.Equal(t, "/fork", p.Root())
	assert.Equal(t, filepath.Join("/fork", DefaultChromiumDir), p.ChromiumSrc())
}

func TestNewExplicitChromiumSrc(t *testing.T) {
	p, err := New("/fork", "/mnt/big-disk/chromium/src")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/big-disk/chromium/src", p.ChromiumSrc())
}

func TestNewEnvOverride(t *testing.T) {
	t.Setenv(EnvChromiumSrc, "/env/chromium")
	p, err := New("/fork", "")
	require.NoError(t, err)
	assert.Equal(t, "/env/chromium", p.ChromiumSrc())

	// An explicit path still wins over the environment.
	p, err = New("/fork", "/explicit/src")
	require.NoError(t, err)
	assert.Equal(t, "/explicit/src", p.ChromiumSrc())
}

func TestDerivedPaths(t *testing.T) {
	p, err := New("/fork", "/src")
	require.NoError(t, err)

	assert.Equal(t, "/fork/CHROMIUM_VERSION", p.UpstreamVersionPath())
	assert.Equal(t, "/fork/NXTSCAPE_VERSION", p.ForkVersionPath())
	assert.Equal(t, "/fork/patches", p.PatchesDir())
	assert.Equal(t, "/fork/resources", p.ResourcesDir())
	assert.Equal(t, filepath.Join("/fork", "build", "flags"), p.GnFlagsDir())
	assert.Equal(t, "/fork/nxbuild.toml", p.ProjectConfigPath())
	assert.Equal(t, "/src/.nxbuild", p.StateDir())
	assert.Equal(t, filepath.Join("/src", ".nxbuild", "applied"), p.AppliedDir())
	assert.Equal(t, "/src/.nxbuild.lock", p.LockPath())
	assert.Equal(t, filepath.Join("/src", "third_party", "sparkle"), p.SparkleDir())
	assert.Equal(t, filepath.Join("/src", "out", "Default_arm64"), p.OutDir(types.ArchArm64))
	assert.Equal(t, filepath.Join("/src", "out", "Default_x64"), p.OutDir(types.ArchX64))
}
