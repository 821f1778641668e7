package fsm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/execctx"
)

func TestRunWithRetrySucceedsWithoutAnyRetry(t *testing.T) {
	state := &MachineContext{}
	calls := 0
	err := runWithRetry(context.Background(), execctx.ExecutionContext{}, state, 3, func(context.Context, int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, state.Trace())
}

func TestRunWithRetryRecordsFailuresAsMessagesThenSucceeds(t *testing.T) {
	state := &MachineContext{}
	calls := 0
	err := runWithRetry(context.Background(), execctx.ExecutionContext{}, state, 2, func(context.Context, int) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("boom %d", calls)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, state.Trace(), 4) // 2 failed attempts * (assistant + tool) message pair
}

func TestRunWithRetryReturnsLastErrorAfterBudgetExhausted(t *testing.T) {
	state := &MachineContext{}
	calls := 0
	err := runWithRetry(context.Background(), execctx.ExecutionContext{}, state, 1, func(context.Context, int) error {
		calls++
		return fmt.Errorf("always fails")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls) // initial attempt + 1 retry
}
