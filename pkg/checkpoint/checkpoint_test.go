package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/executable"
)

type countingExecutable struct {
	calls int
}

func (c *countingExecutable) Execute(ctx context.Context, ectx execctx.ExecutionContext, input string) (string, error) {
	c.calls++
	_ = ectx.WriteKind(ctx, execctx.EventMessage, execctx.Event{Message: "computed " + input})
	return "result-for-" + input, nil
}

func TestCheckpointRootResumeSkipsRecomputation(t *testing.T) {
	store := NewMemStore()
	manager := NewManager(store, nil, nil)
	inner := &countingExecutable{}
	wrapped := executable.NewCheckpoint[string, string](inner)

	ctx := context.Background()
	run, err := store.CreateRun(ctx, "job-1")
	require.NoError(t, err)

	ectx := execctx.NewBuilder().
		WithSource(execctx.NewRootSource("job-1", execctx.KindWorkflow)).
		WithWriter(execctx.WriterFunc(func(ctx context.Context, e execctx.Event) error { return nil })).
		WithCheckpoint(manager.Root(run)).
		Build()

	out, err := wrapped.Execute(ctx, ectx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "result-for-alpha", out)
	assert.Equal(t, 1, inner.calls)

	// Re-executing the same frame under the same run must replay from the
	// journal instead of recomputing (spec §4.2 replay algorithm).
	out2, err := wrapped.Execute(ctx, ectx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "result-for-alpha", out2)
	assert.Equal(t, 1, inner.calls, "inner executable must not re-run on replay")
}

func TestLastRunFailedOnlyResumesFailedRuns(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	run1, err := store.CreateRun(ctx, "job-2")
	require.NoError(t, err)
	require.NoError(t, store.WriteSuccessMarker(ctx, run1))

	_, resumed, err := executable.LastRunFailed{}.Check(ctx, store, "job-2")
	require.NoError(t, err)
	assert.False(t, resumed, "a successful run must not be resumed")
}
