// Package config loads and merges nxbuild configuration.
//
// Three layers, later wins:
//
//  1. built-in defaults
//  2. the checked-in project file (nxbuild.toml)
//  3. an optional run profile (YAML, passed with -c), matching the
//     contract of the original build driver
//
// CLI flags are applied on top by the command layer. The pipeline only
// ever sees the fully resolved Config value.
package config

import (
	stderrors "errors"
	"io/fs"

	"github.com/pelletier/go-toml/v2"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// Steps enables or disables individual pipeline stages. Every step
// defaults to off; the operator opts into each destructive action.
type Steps struct {
	Clean        bool `toml:"clean" yaml:"clean"`
	GitSetup     bool `toml:"git_setup" yaml:"git_setup"`
	ApplyPatches bool `toml:"apply_patches" yaml:"apply_patches"`
	Build        bool `toml:"build" yaml:"build"`
	Sign         bool `toml:"sign" yaml:"sign"`
	Package      bool `toml:"package" yaml:"package"`
}

// Build selects variant and architecture.
type Build struct {
	Type         string   `toml:"type" yaml:"type"`
	Architecture string   `toml:"architecture" yaml:"architecture"`
	Targets      []string `toml:"targets" yaml:"targets"`
}

// Clean configures the untracked-file clean during sync. Exclude is a
// git clean exclusion allow-list and must stay non-empty: cleaning must
// never delete vendor or tooling trees that cannot be regenerated
// offline.
type Clean struct {
	Exclude []string `toml:"exclude" yaml:"exclude"`
}

// Overlay is one fork-owned resource directory copied into the tree.
type Overlay struct {
	Name     string `toml:"name" yaml:"name"`
	Source   string `toml:"source" yaml:"source"`
	Dest     string `toml:"dest" yaml:"dest"`
	Optional bool   `toml:"optional" yaml:"optional"`
}

// Sparkle configures the updater framework download.
type Sparkle struct {
	Version string `toml:"version" yaml:"version"`
	URL     string `toml:"url" yaml:"url"`
}

// Sign configures the external signing/packaging bridge.
type Sign struct {
	Script   string `toml:"script" yaml:"script"`
	Identity string `toml:"identity" yaml:"identity"`
}

// Notifications configures webhook progress posts. Off by default:
// most local builds have no channel to report to.
type Notifications struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Webhook string `toml:"webhook" yaml:"webhook"`
}

// Paths holds user-configurable locations.
type Paths struct {
	ChromiumSrc string `toml:"chromium_src" yaml:"chromium_src"`
}

// GnFlags configures an extra GN fragment appended after the variant
// fragment, before the architecture line.
type GnFlags struct {
	File string `toml:"file" yaml:"file"`
}

// Config is the fully merged nxbuild configuration.
type Config struct {
	Build   Build     `toml:"build" yaml:"build"`
	Steps   Steps     `toml:"steps" yaml:"steps"`
	Clean   Clean     `toml:"clean" yaml:"clean"`
	Overlay []Overlay `toml:"overlay" yaml:"overlay"`
	Sparkle Sparkle   `toml:"sparkle" yaml:"sparkle"`
	Sign    Sign      `toml:"sign" yaml:"sign"`
	Paths   Paths     `toml:"paths" yaml:"paths"`
	GnFlags GnFlags   `toml:"gn_flags" yaml:"gn_flags"`

	Notifications Notifications `toml:"notifications" yaml:"notifications"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Build: Build{
			Type:         string(types.BuildTypeDebug),
			Architecture: string(types.ArchArm64),
			Targets:      []string{"chrome"},
		},
		Clean: Clean{
			Exclude: []string{
				"third_party/depot_tools",
				".nxbuild",
				".nxbuild.lock",
				"out",
			},
		},
		Overlay: []Overlay{
			{
				Name:   "sidepanel",
				Source: "resources/sidepanel",
				Dest:   "chrome/browser/resources/side_panel/nxtscape",
			},
			{
				Name:     "icons",
				Source:   "resources/icons",
				Dest:     "chrome/app/theme/nxtscape",
				Optional: true,
			},
		},
		Sparkle: Sparkle{
			Version: "2.6.4",
			URL:     "https://github.com/sparkle-project/Sparkle/releases/download/2.6.4/Sparkle-2.6.4.tar.xz",
		},
	}
}

// Load reads the project configuration file on top of the defaults.
// A missing file is not an error: the defaults apply unchanged.
func Load(filesystem types.FS, path string) (Config, error) {
	cfg := Default()

	data, err := filesystem.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), errors.Wrapf(err, errors.ErrConfigLoad, "cannot parse config %s", path)
	}

	return cfg, nil
}

// Validate checks invariants the pipeline depends on.
func (c *Config) Validate() error {
	if _, err := types.ParseBuildType(c.Build.Type); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "build.type")
	}
	if _, err := types.ParseArchitecture(c.Build.Architecture); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "build.architecture")
	}
	if len(c.Build.Targets) == 0 {
		return errors.New(errors.ErrConfigValid, "build.targets must name at least one target")
	}
	if len(c.Clean.Exclude) == 0 {
		return errors.New(errors.ErrConfigValid, "clean.exclude must not be empty: cleaning without an allow-list can delete vendor trees")
	}
	if c.Notifications.Enabled && c.Notifications.Webhook == "" {
		return errors.New(errors.ErrConfigValid, "notifications.enabled requires notifications.webhook")
	}
	for _, o := range c.Overlay {
		if o.Source == "" || o.Dest == "" {
			return errors.Newf(errors.ErrConfigValid, "overlay %q needs both source and dest", o.Name)
		}
	}
	return nil
}

// BuildType returns the validated build type.
func (c *Config) BuildType() types.BuildType {
	return types.BuildType(c.Build.Type)
}

// Architecture returns the validated target architecture.
func (c *Config) Architecture() types.Architecture {
	return types.Architecture(c.Build.Architecture)
}

// OverlaySpecs converts configured overlays to their domain type.
func (c *Config) OverlaySpecs() []types.OverlaySpec {
	specs := make([]types.OverlaySpec, 0, len(c.Overlay))
	for _, o := range c.Overlay {
		specs = append(specs, types.OverlaySpec{
			Name:     o.Name,
			Source:   o.Source,
			Dest:     o.Dest,
			Optional: o.Optional,
		})
	}
	return specs
}

func isNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}
