// Package compile invokes the external build system. nxbuild does not
// understand the dependency graph; it runs gn and autoninja and relays
// pass or fail with the tool's own diagnostics.
package compile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/command"
	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

// Invoker runs build-file generation and compilation.
type Invoker struct {
	runner command.Runner
	logger zerolog.Logger
}

// NewInvoker creates an Invoker.
func NewInvoker(runner command.Runner) *Invoker {
	return &Invoker{
		runner: runner,
		logger: logging.GetLogger("compile"),
	}
}

// Configure runs gn gen for the output directory. args.gn must already
// be composed there.
func (i *Invoker) Configure(ctx context.Context, tree *worktree.Tree, outDir string) error {
	i.logger.Info().Str("out", outDir).Msg("Generating build files")
	out, err := i.runner.Run(ctx, tree.Root(), "gn", "gen", outDir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrBuildFailed, "gn gen %s failed", outDir).
			WithDetail("output", tail(out))
	}
	return nil
}

// Build compiles the targets with autoninja.
func (i *Invoker) Build(ctx context.Context, tree *worktree.Tree, outDir string, targets []string) error {
	if len(targets) == 0 {
		return errors.New(errors.ErrInvalidInput, "no build targets given")
	}

	i.logger.Info().Str("out", outDir).Strs("targets", targets).Msg("Compiling")
	args := append([]string{"-C", outDir}, targets...)
	out, err := i.runner.Run(ctx, tree.Root(), "autoninja", args...)
	if err != nil {
		return errors.Wrapf(err, errors.ErrBuildFailed,
			"compilation of %s failed", strings.Join(targets, " ")).
			WithDetail("targets", targets).
			WithDetail("output", tail(out))
	}
	return nil
}

// tail keeps the last lines of tool output for error details. Build
// tools print the actionable diagnostic last.
func tail(out []byte) string {
	const maxLines = 30
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
