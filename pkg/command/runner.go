// Package command wraps external tool invocation. Every call out to
// git, gclient, gn, autoninja and the packaging scripts goes through the
// Runner interface so pipeline stages can be tested without executing
// anything.
package command

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nxtscape/nxbuild/pkg/logging"
)

// Runner executes an external command in a working directory and
// returns its combined output. Implementations must honor context
// cancellation so an interrupted build stops the running tool.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	logger zerolog.Logger
	dryRun bool
}

// NewExecRunner creates a runner backed by os/exec
func NewExecRunner(dryRun bool) *ExecRunner {
	return &ExecRunner{
		logger: logging.GetLogger("command"),
		dryRun: dryRun,
	}
}

// Run executes the command and returns its combined stdout/stderr.
// In dry-run mode the command is logged but not executed.
func (r *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	r.logger.Debug().
		Str("dir", dir).
		Str("command", name).
		Strs("args", args).
		Bool("dry_run", r.dryRun).
		Msg("Executing command")

	if r.dryRun {
		return nil, nil
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()

	logEvent := r.logger.Debug()
	if err != nil {
		logEvent = r.logger.Warn().Err(err)
	}
	logEvent.
		Str("command", name).
		Dur("duration", time.Since(start)).
		Int("output_bytes", len(output)).
		Msg("Command finished")

	return output, err
}

// Line formats a command invocation for error messages and logs.
func Line(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
