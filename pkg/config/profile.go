package config

import (
	"gopkg.in/yaml.v3"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// Profile is a YAML run profile passed with -c. It overrides the
// project configuration for a single invocation; absent fields leave
// the underlying configuration untouched.
type Profile struct {
	Build *struct {
		Type         string `yaml:"type"`
		Architecture string `yaml:"architecture"`
	} `yaml:"build"`

	Steps *struct {
		Clean        *bool `yaml:"clean"`
		GitSetup     *bool `yaml:"git_setup"`
		ApplyPatches *bool `yaml:"apply_patches"`
		Build        *bool `yaml:"build"`
		Sign         *bool `yaml:"sign"`
		Package      *bool `yaml:"package"`
	} `yaml:"steps"`

	GnFlags *struct {
		File string `yaml:"file"`
	} `yaml:"gn_flags"`

	Paths *struct {
		ChromiumSrc string `yaml:"chromium_src"`
	} `yaml:"paths"`

	Notifications *struct {
		Enabled *bool  `yaml:"enabled"`
		Webhook string `yaml:"webhook"`
	} `yaml:"notifications"`
}

// LoadProfile reads a run profile. Unlike the project file, a profile
// was named explicitly on the command line, so a missing or malformed
// file is a configuration error.
func LoadProfile(filesystem types.FS, path string) (*Profile, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read profile %s", path)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot parse profile %s", path)
	}
	return &p, nil
}

// Apply merges the profile into cfg, field by field.
func (p *Profile) Apply(cfg *Config) {
	if p == nil {
		return
	}

	if p.Build != nil {
		if p.Build.Type != "" {
			cfg.Build.Type = p.Build.Type
		}
		if p.Build.Architecture != "" {
			cfg.Build.Architecture = p.Build.Architecture
		}
	}

	if p.Steps != nil {
		applyBool(p.Steps.Clean, &cfg.Steps.Clean)
		applyBool(p.Steps.GitSetup, &cfg.Steps.GitSetup)
		applyBool(p.Steps.ApplyPatches, &cfg.Steps.ApplyPatches)
		applyBool(p.Steps.Build, &cfg.Steps.Build)
		applyBool(p.Steps.Sign, &cfg.Steps.Sign)
		applyBool(p.Steps.Package, &cfg.Steps.Package)
	}

	if p.GnFlags != nil && p.GnFlags.File != "" {
		cfg.GnFlags.File = p.GnFlags.File
	}

	if p.Paths != nil && p.Paths.ChromiumSrc != "" {
		cfg.Paths.ChromiumSrc = p.Paths.ChromiumSrc
	}

	if p.Notifications != nil {
		applyBool(p.Notifications.Enabled, &cfg.Notifications.Enabled)
		if p.Notifications.Webhook != "" {
			cfg.Notifications.Webhook = p.Notifications.Webhook
		}
	}
}

func applyBool(src *bool, dst *bool) {
	if src != nil {
		*dst = *src
	}
}
