// Package sign is the boundary to the external signing and packaging
// tooling. nxbuild only knows the invocation contract: the script, the
// built app's output directory, and the signing identity. Everything
// past the process boundary (entitlements, notarization, DMG layout)
// belongs to the script.
package sign

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/command"
	"github.com/nxtscape/nxbuild/pkg/config"
	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

// Bridge invokes the external signing/packaging script.
type Bridge struct {
	runner command.Runner
	logger zerolog.Logger
}

// NewBridge creates a Bridge.
func NewBridge(runner command.Runner) *Bridge {
	return &Bridge{
		runner: runner,
		logger: logging.GetLogger("sign"),
	}
}

// SignAndPackage runs the configured script against the build output.
// The script receives the out directory, the fork version for the
// artifact name, and, when configured, the signing identity.
func (b *Bridge) SignAndPackage(ctx context.Context, tree *worktree.Tree, cfg config.Sign, outDir, version string) error {
	if cfg.Script == "" {
		return errors.New(errors.ErrSignFailed, "no signing script configured (sign.script in nxbuild.toml)")
	}

	args := []string{outDir}
	if version != "" {
		args = append(args, "--version", version)
	}
	if cfg.Identity != "" {
		args = append(args, "--identity", cfg.Identity)
	}

	b.logger.Info().Str("script", cfg.Script).Str("out", outDir).Str("version", version).Msg("Signing and packaging")
	out, err := b.runner.Run(ctx, tree.Root(), cfg.Script, args...)
	if err != nil {
		return errors.Wrapf(err, errors.ErrSignFailed, "signing script %s failed", cfg.Script).
			WithDetail("output", string(out))
	}
	return nil
}
