package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxtscape/nxbuild/pkg/config"
	"github.com/nxtscape/nxbuild/pkg/ui"
)

func TestRootFlags(t *testing.T) {
	root := NewRootCmd()

	shorthands := map[string]string{
		"build-type":    "t",
		"clean":         "C",
		"git-setup":     "g",
		"apply-patches": "p",
		"build":         "b",
		"sign":          "s",
		"package":       "P",
		"config":        "c",
	}
	for name, short := range shorthands {
		flag := root.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, short, flag.Shorthand, name)
	}

	for _, name := range []string{"chromium-src", "non-interactive", "dry-run", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
}

func TestRootSubcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "version")
	assert.Contains(t, names, "patches")
}

func TestHelpTopicsInstalled(t *testing.T) {
	root := NewRootCmd()
	assert.Contains(t, root.Long, "patches")
	assert.Contains(t, root.Long, "setup")
}

func TestResolveStepsFlagsWin(t *testing.T) {
	root, flags := newRoot()
	require.NoError(t, root.ParseFlags([]string{"-C", "-p", "--non-interactive"}))

	cfg := config.Default()
	cfg.Steps.Build = true

	steps := resolveSteps(root, flags, cfg, ui.StaticPrompter{})
	assert.True(t, steps.Clean)
	assert.True(t, steps.ApplyPatches)
	assert.True(t, steps.Build, "config-selected steps survive when their flag is absent")
	assert.False(t, steps.GitSetup)
	assert.False(t, steps.Sign)
}

func TestResolveStepsExplicitOff(t *testing.T) {
	root, flags := newRoot()
	require.NoError(t, root.ParseFlags([]string{"--build=false", "--non-interactive"}))

	cfg := config.Default()
	cfg.Steps.Build = true

	steps := resolveSteps(root, flags, cfg, ui.StaticPrompter{})
	assert.False(t, steps.Build, "an explicit flag beats the config even when turning a step off")
}

func TestArchArgumentValidation(t *testing.T) {
	root := NewRootCmd()
	assert.NoError(t, root.Args(root, []string{"arm64"}))
	assert.NoError(t, root.Args(root, []string{}))
	assert.Error(t, root.Args(root, []string{"arm64", "x64"}))
}

func TestResolveStepsPromptsUnselected(t *testing.T) {
	root, flags := newRoot()
	require.NoError(t, root.ParseFlags([]string{"--clean=false"}))

	cfg := config.Default()

	steps := resolveSteps(root, flags, cfg, ui.StaticPrompter{Answer: true})
	assert.False(t, steps.Clean, "a flag-set step is never offered to the prompter")
	assert.True(t, steps.GitSetup)
	assert.True(t, steps.ApplyPatches)
	assert.False(t, steps.Build, "only tree-mutating steps are prompted")
}

func TestResolveStepsDecliningPromptsSelectsNothing(t *testing.T) {
	root, flags := newRoot()
	require.NoError(t, root.ParseFlags(nil))

	steps := resolveSteps(root, flags, config.Default(), ui.StaticPrompter{})
	assert.Equal(t, config.Steps{}, steps)
}
