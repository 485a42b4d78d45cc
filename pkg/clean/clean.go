// Package clean removes build artifacts from the working tree. It
// deletes the per-architecture output directory and the fetched
// Sparkle framework through a synthfs operations pipeline, which gives
// a uniform dry-run path: in dry-run mode the planned deletions are
// logged and nothing touches the disk.
//
// This is distinct from the git-level clean in pkg/gitsync: that one
// removes untracked files during sync, this one removes artifacts
// nxbuild itself produced.
package clean

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/paths"
	"github.com/nxtscape/nxbuild/pkg/types"
)

// Cleaner deletes build artifacts.
type Cleaner struct {
	logger zerolog.Logger
	dryRun bool
}

// NewCleaner creates a Cleaner. In dry-run mode Clean only logs what
// it would delete.
func NewCleaner(dryRun bool) *Cleaner {
	return &Cleaner{
		logger: logging.GetLogger("clean"),
		dryRun: dryRun,
	}
}

// Clean removes the output directory for arch and the Sparkle
// framework directory. Missing targets are skipped, so Clean is safe
// to run on an already-clean tree.
func (c *Cleaner) Clean(ctx context.Context, p *paths.Paths, arch types.Architecture) error {
	targets := c.existingTargets([]string{
		p.OutDir(arch),
		p.SparkleDir(),
	})

	if len(targets) == 0 {
		c.logger.Info().Msg("Nothing to clean")
		return nil
	}

	if c.dryRun {
		for _, target := range targets {
			c.logger.Info().Str("target", target).Msg("Would delete")
		}
		return nil
	}

	pipeline := synthfs.NewMemPipeline()
	for _, target := range targets {
		rel, err := filepath.Rel("/", target)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot convert path %s", target)
		}
		opID := core.OperationID(fmt.Sprintf("delete-%s", target))
		deleteOp := operations.NewDeleteOperation(opID, rel)
		if err := pipeline.Add(synthfs.NewOperationsPackageAdapter(deleteOp)); err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot queue deletion of %s", target)
		}
		c.logger.Info().Str("target", target).Msg("Deleting")
	}

	executor := synthfs.NewExecutor()
	result := executor.Run(ctx, pipeline, filesystem.NewOSFileSystem("/"))
	if result.GetError() != nil {
		return errors.Wrap(result.GetError(), errors.ErrInternal, "artifact cleanup failed")
	}
	return nil
}

// existingTargets filters out paths that are already absent.
func (c *Cleaner) existingTargets(candidates []string) []string {
	var targets []string
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			targets = append(targets, candidate)
		}
	}
	return targets
}
