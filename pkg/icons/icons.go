// Package icons is the boundary to the external icon asset generator.
// The generator renders the platform icon sets (macOS .icns, Windows
// .ico plus the PNG ladder) from the fork's master artwork. Icon
// generation is never build-fatal: a missing artwork directory or a
// generator failure degrades to upstream's default icons with a
// warning.
package icons

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/command"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/types"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

// GeneratorScript is the expected generator entry point under the
// artwork source directory.
const GeneratorScript = "generate.sh"

// Generator invokes the external icon generator.
type Generator struct {
	runner command.Runner
	fs     types.FS
	logger zerolog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(runner command.Runner, filesystem types.FS) *Generator {
	return &Generator{
		runner: runner,
		fs:     filesystem,
		logger: logging.GetLogger("icons"),
	}
}

// Generate runs the icon generator for the tree. It returns whether
// generation ran; it never returns an error for missing artwork or a
// failed generator run.
func (g *Generator) Generate(ctx context.Context, tree *worktree.Tree, sourceDir string) bool {
	info, err := g.fs.Stat(sourceDir)
	if err != nil || !info.IsDir() {
		g.logger.Warn().Str("source", sourceDir).Msg("Icon artwork directory missing, keeping upstream icons")
		return false
	}

	script := sourceDir + "/" + GeneratorScript
	if _, err := g.fs.Stat(script); err != nil {
		g.logger.Warn().Str("script", script).Msg("Icon generator script missing, keeping upstream icons")
		return false
	}

	g.logger.Info().Str("source", sourceDir).Msg("Generating icon assets")
	out, err := g.runner.Run(ctx, tree.Root(), script, tree.Root())
	if err != nil {
		g.logger.Warn().Err(err).Str("output", string(out)).Msg("Icon generation failed, keeping upstream icons")
		return false
	}
	return true
}
