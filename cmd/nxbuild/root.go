package main

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nxtscape/nxbuild/internal/version"
	"github.com/nxtscape/nxbuild/pkg/cobrax/topics"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/ui"
)

//go:embed docs/*.md
var docsFS embed.FS

// cliFlags holds every root-command flag. Flags the user did not set
// are distinguished from defaults via cobra's Changed tracking in
// resolveOptions.
type cliFlags struct {
	buildType      string
	runClean       bool
	runGitSetup    bool
	runPatches     bool
	runBuild       bool
	runSign        bool
	runPackage     bool
	profilePath    string
	chromiumSrc    string
	nonInteractive bool
	dryRun         bool
	verbosity      int
}

// NewRootCmd builds the nxbuild command tree.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRoot()
	return cmd
}

func newRoot() (*cobra.Command, *cliFlags) {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   "nxbuild [arm64|x64]",
		Short: "Build driver for the Nxtscape browser",
		Long: `nxbuild drives a Nxtscape build end to end: it pins the upstream
Chromium revision, syncs the working tree, applies the fork's patch
stack, injects resource overlays, composes GN args, and invokes the
build. Each step is individually selectable; steps that mutate the
working tree ask for confirmation unless their flag was given
explicitly.`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Log commands and deletions without executing them")
	rootCmd.PersistentFlags().StringVarP(&flags.chromiumSrc, "chromium-src", "S", "", "Chromium working tree (default: ./chromium_src or $NXBUILD_CHROMIUM_SRC)")
	rootCmd.PersistentFlags().BoolVar(&flags.nonInteractive, "non-interactive", false, "Never prompt; unset step flags stay off")

	rootCmd.Flags().StringVarP(&flags.buildType, "build-type", "t", "debug", "Build variant: debug or release")
	rootCmd.Flags().BoolVarP(&flags.runClean, "clean", "C", false, "Delete build output and fetched frameworks first")
	rootCmd.Flags().BoolVarP(&flags.runGitSetup, "git-setup", "g", false, "Reset and sync the tree to the pinned revision")
	rootCmd.Flags().BoolVarP(&flags.runPatches, "apply-patches", "p", false, "Apply the patch stack and resource overlays")
	rootCmd.Flags().BoolVarP(&flags.runBuild, "build", "b", false, "Compose GN args and compile")
	rootCmd.Flags().BoolVarP(&flags.runSign, "sign", "s", false, "Sign the built app")
	rootCmd.Flags().BoolVarP(&flags.runPackage, "package", "P", false, "Package the signed app for distribution")
	rootCmd.Flags().StringVarP(&flags.profilePath, "config", "c", "", "Run profile YAML overriding the project config")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newPatchesCmd(flags))

	installTopics(rootCmd)

	return rootCmd, flags
}

func installTopics(rootCmd *cobra.Command) {
	docs, err := fs.Sub(docsFS, "docs")
	if err != nil {
		return
	}

	var renderer topics.Renderer = topics.PlainRenderer{}
	if ui.IsInteractive() {
		renderer = topics.GlamourRenderer{}
	}

	manager, err := topics.New(docs, renderer)
	if err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
		return
	}
	manager.Install(rootCmd)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nxbuild version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}
