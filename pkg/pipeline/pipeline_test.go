package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nxerrors "github.com/nxtscape/nxbuild/pkg/errors"
)

func stage(name string, ran *[]string, err error) Stage {
	return StageFunc{
		StageName: name,
		Fn: func(ctx context.Context, bc *BuildContext) error {
			*ran = append(*ran, name)
			return err
		},
	}
}

func TestRunInOrder(t *testing.T) {
	var ran []string
	p := New(
		stage("sync", &ran, nil),
		stage("patches", &ran, nil),
		stage("compile", &ran, nil),
	)

	require.NoError(t, p.Run(context.Background(), &BuildContext{}))
	assert.Equal(t, []string{"sync", "patches", "compile"}, ran)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	var ran []string
	patchErr := nxerrors.New(nxerrors.ErrPatchConflict, "patch 0002-b did not apply cleanly")
	p := New(
		stage("sync", &ran, nil),
		stage("patches", &ran, patchErr),
		stage("compile", &ran, nil),
	)

	err := p.Run(context.Background(), &BuildContext{})
	require.Error(t, err)
	assert.Equal(t, []string{"sync", "patches"}, ran, "stages after a failure must not run")
	assert.True(t, nxerrors.IsErrorCode(err, nxerrors.ErrPatchConflict), "stage error code passes through")
	assert.Equal(t, "patches", nxerrors.GetDetail(err, "stage"))
}

func TestRunWrapsPlainErrors(t *testing.T) {
	var ran []string
	p := New(stage("sync", &ran, context.DeadlineExceeded))

	err := p.Run(context.Background(), &BuildContext{})
	require.Error(t, err)
	assert.True(t, nxerrors.IsErrorCode(err, nxerrors.ErrInternal))
	assert.Equal(t, "sync", nxerrors.GetDetail(err, "stage"))
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran []string
	p := New(stage("sync", &ran, nil))

	err := p.Run(ctx, &BuildContext{})
	require.Error(t, err)
	assert.Empty(t, ran)
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) StageStarted(_ context.Context, stage string) {
	r.events = append(r.events, "started "+stage)
}

func (r *recordingNotifier) BuildFailed(_ context.Context, stage string, err error) {
	r.events = append(r.events, fmt.Sprintf("failed %s: %v", stage, err))
}

func TestRunNotifiesEveryStage(t *testing.T) {
	var ran []string
	rec := &recordingNotifier{}
	p := New(
		stage("sync", &ran, nil),
		stage("patches", &ran, nil),
	).WithNotifier(rec)

	require.NoError(t, p.Run(context.Background(), &BuildContext{}))
	assert.Equal(t, []string{"started sync", "started patches"}, rec.events)
}

func TestRunNotifiesFailureOnce(t *testing.T) {
	var ran []string
	rec := &recordingNotifier{}
	patchErr := nxerrors.New(nxerrors.ErrPatchConflict, "patch 0002-b did not apply cleanly")
	p := New(
		stage("sync", &ran, nil),
		stage("patches", &ran, patchErr),
		stage("compile", &ran, nil),
	).WithNotifier(rec)

	require.Error(t, p.Run(context.Background(), &BuildContext{}))
	require.Len(t, rec.events, 3, "no event for the stage after the failure")
	assert.Equal(t, "started sync", rec.events[0])
	assert.Equal(t, "started patches", rec.events[1])
	assert.Contains(t, rec.events[2], "failed patches")
	assert.Contains(t, rec.events[2], "did not apply cleanly")
}
