// Package pipeline sequences the build stages. Each stage is a typed
// unit of work over a shared BuildContext; the first failure aborts
// everything after it. There is no best-effort mode: a tree that is
// partially synced or partially patched must not be compiled.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/config"
	"github.com/nxtscape/nxbuild/pkg/errors"
	"github.com/nxtscape/nxbuild/pkg/logging"
	"github.com/nxtscape/nxbuild/pkg/notify"
	"github.com/nxtscape/nxbuild/pkg/paths"
	"github.com/nxtscape/nxbuild/pkg/types"
	"github.com/nxtscape/nxbuild/pkg/worktree"
)

// BuildContext is the shared state stages read and update. The
// configuration is resolved before the pipeline starts and never
// changes mid-run.
type BuildContext struct {
	Config config.Config
	Paths  *paths.Paths
	Tree   *worktree.Tree

	Arch    types.Architecture
	Variant types.BuildType

	// Revision is set by the version-pin stage and read by sync.
	Revision types.UpstreamRevision

	DryRun bool
}

// Stage is one unit of pipeline work.
type Stage interface {
	Name() string
	Run(ctx context.Context, bc *BuildContext) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, bc *BuildContext) error
}

func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Run(ctx context.Context, bc *BuildContext) error { return s.Fn(ctx, bc) }

// Pipeline runs stages in order.
type Pipeline struct {
	stages   []Stage
	notifier notify.Notifier
	logger   zerolog.Logger
}

// New creates a Pipeline over the given stages.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{
		stages:   stages,
		notifier: notify.Nop{},
		logger:   logging.GetLogger("pipeline"),
	}
}

// WithNotifier routes per-stage progress events to n.
func (p *Pipeline) WithNotifier(n notify.Notifier) *Pipeline {
	if n != nil {
		p.notifier = n
	}
	return p
}

// Run executes every stage in order, stopping at the first failure.
// The failed stage's name is attached to the error so the operator
// knows exactly how far the build got.
func (p *Pipeline) Run(ctx context.Context, bc *BuildContext) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "build interrupted")
		}

		start := time.Now()
		p.logger.Info().Str("stage", stage.Name()).Msg("Stage starting")
		p.notifier.StageStarted(ctx, stage.Name())

		if err := stage.Run(ctx, bc); err != nil {
			p.logger.Error().
				Str("stage", stage.Name()).
				Dur("elapsed", time.Since(start)).
				Err(err).
				Msg("Stage failed")
			p.notifier.BuildFailed(ctx, stage.Name(), err)
			if buildErr, ok := err.(*errors.BuildError); ok {
				return buildErr.WithDetail("stage", stage.Name())
			}
			return errors.Wrapf(err, errors.ErrInternal, "stage %s failed", stage.Name()).
				WithDetail("stage", stage.Name())
		}

		p.logger.Info().
			Str("stage", stage.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("Stage done")
	}
	return nil
}
