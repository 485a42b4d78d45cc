package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nxtscape/nxbuild/pkg/clean"
	"github.com/nxtscape/nxbuild/pkg/command"
	"github.com/nxtscape/nxbuild/pkg/compile"
	"github.com/nxtscape/nxbuild/pkg/config"
	"github.com/nxtscape/nxbuild/pkg/datastore"
	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/filesystem"
	"github.com/nxtscape/nxbuild/pkg/gitsync"
	"github.com/nxtscape/nxbuild/pkg/gnargs"
	"github.com/nxtscape/nxbuild/pkg/icons"
	"github.com/nxtscape/nxbuild/pkg/notify"
	"github.com/nxtscape/nxbuild/pkg/paths"
	"github.com/nxtscape/nxbuild/pkg/patches"
	"github.com/nxtscape/nxbuild/pkg/pipeline"
	"github.com/nxtscape/nxbuild/pkg/resources"
	"github.com/nxtscape/nxbuild/pkg/sign"
	"github.com/nxtscape/nxbuild/pkg/sparkle"
	"github.com/nxtscape/nxbuild/pkg/types"
	"github.com/nxtscape/nxbuild/pkg/ui"
	"github.com/nxtscape/nxbuild/pkg/versionpin"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

// runBuild is the root command: resolve configuration, assemble the
// stage list, and run the pipeline.
func runBuild(cmd *cobra.Command, args []string, flags *cliFlags) error {
	fs := filesystem.NewOS()

	cfg, p, err := resolveConfig(cmd, args, flags, fs)
	if err != nil {
		return err
	}

	var prompter ui.PromptProvider = ui.StaticPrompter{}
	if !flags.nonInteractive && ui.IsInteractive() {
		prompter = ui.NewConsolePrompter()
	}

	steps := resolveSteps(cmd, flags, cfg, prompter)
	if !steps.Clean && !steps.GitSetup && !steps.ApplyPatches && !steps.Build && !steps.Sign && !steps.Package {
		return errors.New(errors.ErrInvalidInput,
			"nothing to do: select at least one step (see nxbuild --help)")
	}
	cfg.Steps = steps

	printer := ui.NewPrinter(ui.IsInteractive())
	runner := command.NewExecRunner(flags.dryRun)
	tree := worktree.New(p.ChromiumSrc(), fs)

	// The fork version names the packaged artifact. A missing pin only
	// matters once signing runs, so it degrades to a warning here.
	forkVersion, err := versionpin.ResolveFork(fs, p.ForkVersionPath())
	if err != nil {
		printer.Warn("Fork version unknown: %v", err)
	} else {
		printer.Info("Building nxtscape %s (%s, %s)", forkVersion, cfg.Build.Type, cfg.Build.Architecture)
	}

	if err := tree.Validate(); err != nil {
		return err
	}
	if err := tree.Lock(); err != nil {
		return err
	}
	defer tree.Unlock()

	bc := &pipeline.BuildContext{
		Config:  cfg,
		Paths:   p,
		Tree:    tree,
		Arch:    cfg.Architecture(),
		Variant: cfg.BuildType(),
		DryRun:  flags.dryRun,
	}

	var stages []pipeline.Stage

	if steps.Clean {
		stages = append(stages, pipeline.StageFunc{
			StageName: "clean",
			Fn: func(ctx context.Context, bc *pipeline.BuildContext) error {
				return clean.NewCleaner(bc.DryRun).Clean(ctx, bc.Paths, bc.Arch)
			},
		})
	}

	if steps.GitSetup {
		stages = append(stages, pipeline.StageFunc{
			StageName: "sync",
			Fn: func(ctx context.Context, bc *pipeline.BuildContext) error {
				revision, err := versionpin.Resolve(fs, bc.Paths.UpstreamVersionPath())
				if err != nil {
					return err
				}
				bc.Revision = revision
				printer.Info("Syncing to Chromium %s", revision)

				_, err = gitsync.New(runner).Sync(ctx, bc.Tree, revision, types.SyncOptions{
					ResetTracked:   true,
					CleanUntracked: true,
					CleanExclude:   bc.Config.Clean.Exclude,
				})
				return err
			},
		})
		stages = append(stages, pipeline.StageFunc{
			StageName: "sparkle",
			Fn: func(ctx context.Context, bc *pipeline.BuildContext) error {
				fetcher := sparkle.NewFetcher(http.DefaultClient, ui.IsInteractive())
				return fetcher.Fetch(ctx, bc.Config.Sparkle, bc.Paths.SparkleDir())
			},
		})
	}

	if steps.ApplyPatches {
		stages = append(stages, pipeline.StageFunc{
			StageName: "patches",
			Fn: func(ctx context.Context, bc *pipeline.BuildContext) error {
				stack, err := patches.Discover(fs, bc.Paths.PatchesDir())
				if err != nil {
					return err
				}

				store := datastore.New(fs, bc.Paths.AppliedDir())
				applier := patches.NewApplier(runner, fs, store)
				report, err := applier.Apply(ctx, bc.Tree, stack)
				if err != nil {
					printer.Error("Patch %s failed; %d applied before it", report.Failed, len(report.Applied))
					return err
				}
				printer.Success("Patches: %d applied, %d already applied", len(report.Applied), len(report.AlreadyApplied))
				return nil
			},
		})
		stages = append(stages, pipeline.StageFunc{
			StageName: "resources",
			Fn: func(ctx context.Context, bc *pipeline.BuildContext) error {
				copier := resources.NewCopier(fs)
				report, err := copier.Copy(bc.Paths.Root(), bc.Tree.Root(), bc.Config.OverlaySpecs())
				if err != nil {
					return err
				}
				printer.Success("Resources: %d files copied", report.CopiedFiles)

				gen := icons.NewGenerator(runner, fs)
				gen.Generate(ctx, bc.Tree, bc.Paths.ResourcesDir()+"/artwork")
				return nil
			},
		})
	}

	if steps.Build {
		stages = append(stages, pipeline.StageFunc{
			StageName: "compile",
			Fn: func(ctx context.Context, bc *pipeline.BuildContext) error {
				outDir := bc.Paths.OutDir(bc.Arch)
				err := gnargs.Compose(fs, bc.Paths.GnFlagsDir(), bc.Variant, bc.Arch,
					bc.Config.GnFlags.File, outDir)
				if err != nil {
					return err
				}

				invoker := compile.NewInvoker(runner)
				if err := invoker.Configure(ctx, bc.Tree, outDir); err != nil {
					return err
				}
				return invoker.Build(ctx, bc.Tree, outDir, bc.Config.Build.Targets)
			},
		})
	}

	if steps.Sign || steps.Package {
		stages = append(stages, pipeline.StageFunc{
			StageName: "sign",
			Fn: func(ctx context.Context, bc *pipeline.BuildContext) error {
				bridge := sign.NewBridge(runner)
				return bridge.SignAndPackage(ctx, bc.Tree, bc.Config.Sign, bc.Paths.OutDir(bc.Arch), forkVersion)
			},
		})
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifications.Enabled {
		notifier = notify.NewWebhook(cfg.Notifications.Webhook, nil)
	}

	if err := pipeline.New(stages...).WithNotifier(notifier).Run(cmd.Context(), bc); err != nil {
		return err
	}
	printer.Success("Build finished")
	return nil
}

// resolveConfig layers defaults, the project file, the optional run
// profile, and CLI flags, then validates the result.
func resolveConfig(cmd *cobra.Command, args []string, flags *cliFlags, fs types.FS) (config.Config, *paths.Paths, error) {
	p, err := paths.New("", flags.chromiumSrc)
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := config.Load(fs, p.ProjectConfigPath())
	if err != nil {
		return config.Config{}, nil, err
	}

	if flags.profilePath != "" {
		profile, err := config.LoadProfile(fs, flags.profilePath)
		if err != nil {
			return config.Config{}, nil, err
		}
		profile.Apply(&cfg)
	}

	// CLI overrides beat both config layers.
	if cmd.Flags().Changed("build-type") {
		cfg.Build.Type = flags.buildType
	}
	if len(args) == 1 {
		cfg.Build.Architecture = args[0]
	}
	if cfg.Paths.ChromiumSrc != "" && flags.chromiumSrc == "" {
		p, err = paths.New("", cfg.Paths.ChromiumSrc)
		if err != nil {
			return config.Config{}, nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, p, nil
}

// resolveSteps turns flags, config, and prompts into a final step
// selection. A step flag given on the command line always wins. The
// tree-mutating steps that were not selected anywhere are offered to
// the prompter once; non-interactive runs inject a prompter whose
// answer is always no.
func resolveSteps(cmd *cobra.Command, flags *cliFlags, cfg config.Config, prompter ui.PromptProvider) config.Steps {
	steps := cfg.Steps

	apply := func(name string, flagValue bool, dst *bool) bool {
		if cmd.Flags().Changed(name) {
			*dst = flagValue
			return true
		}
		return false
	}

	cleanSet := apply("clean", flags.runClean, &steps.Clean)
	gitSet := apply("git-setup", flags.runGitSetup, &steps.GitSetup)
	patchesSet := apply("apply-patches", flags.runPatches, &steps.ApplyPatches)
	apply("build", flags.runBuild, &steps.Build)
	apply("sign", flags.runSign, &steps.Sign)
	apply("package", flags.runPackage, &steps.Package)

	if !cleanSet && !steps.Clean {
		steps.Clean = prompter.Confirm("Delete existing build output?")
	}
	if !gitSet && !steps.GitSetup {
		steps.GitSetup = prompter.Confirm("Reset and sync the working tree? (discards local changes)")
	}
	if !patchesSet && !steps.ApplyPatches {
		steps.ApplyPatches = prompter.Confirm("Apply the patch stack?")
	}
	return steps
}
