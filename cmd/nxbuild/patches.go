package main

import (
	"github.com/spf13/cobra"

	"github.com/nxtscape/nxbuild/pkg/command"
	"github.com/nxtscape/nxbuild/pkg/datastore"
	"github.com/nxtscape/nxbuild/pkg/filesystem"
	"github.com/nxtscape/nxbuild/pkg/patches"
	"github.com/nxtscape/nxbuild/pkg/paths"
	"github.com/nxtscape/nxbuild/pkg/types"
	"github.com/nxtscape/nxbuild/pkg/ui"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

// newPatchesCmd exposes the patch stack directly, without the rest of
// the pipeline. Useful while iterating on a single patch.
func newPatchesCmd(flags *cliFlags) *cobra.Command {
	patchesCmd := &cobra.Command{
		Use:   "patches",
		Short: "Apply or reverse the patch stack",
	}

	patchesCmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Apply all pending patches to the working tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatchStack(cmd, flags, false)
		},
	})
	patchesCmd.AddCommand(&cobra.Command{
		Use:   "reverse",
		Short: "Reverse all applied patches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatchStack(cmd, flags, true)
		},
	})
	patchesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the patch stack and each patch's applied state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatchList(flags)
		},
	})

	return patchesCmd
}

func patchStackEnv(flags *cliFlags) (types.FS, *paths.Paths, *worktree.Tree, []types.Patch, datastore.DataStore, error) {
	fs := filesystem.NewOS()
	p, err := paths.New("", flags.chromiumSrc)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	tree := worktree.New(p.ChromiumSrc(), fs)
	if err := tree.Validate(); err != nil {
		return nil, nil, nil, nil, nil, err
	}

	stack, err := patches.Discover(fs, p.PatchesDir())
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	return fs, p, tree, stack, datastore.New(fs, p.AppliedDir()), nil
}

func runPatchStack(cmd *cobra.Command, flags *cliFlags, reverse bool) error {
	fs, _, tree, stack, store, err := patchStackEnv(flags)
	if err != nil {
		return err
	}

	if err := tree.Lock(); err != nil {
		return err
	}
	defer tree.Unlock()

	printer := ui.NewPrinter(ui.IsInteractive())
	runner := command.NewExecRunner(flags.dryRun)
	applier := patches.NewApplier(runner, fs, store)

	if reverse {
		report, err := applier.Reverse(cmd.Context(), tree, stack)
		if err != nil {
			return err
		}
		printer.Success("Reversed %d patches", len(report.Reversed))
		return nil
	}

	report, err := applier.Apply(cmd.Context(), tree, stack)
	if err != nil {
		return err
	}
	printer.Success("Patches: %d applied, %d already applied", len(report.Applied), len(report.AlreadyApplied))
	return nil
}

func runPatchList(flags *cliFlags) error {
	fs, _, _, stack, store, err := patchStackEnv(flags)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(ui.IsInteractive())
	for _, patch := range stack {
		content, err := fs.ReadFile(patch.Path)
		if err != nil {
			return err
		}
		applied, err := store.IsApplied(patch.ID, patches.Checksum(content))
		if err != nil {
			return err
		}
		if applied {
			printer.Success("%s (applied)", patch.ID)
		} else {
			printer.Info("%s (pending)", patch.ID)
		}
	}
	return nil
}
