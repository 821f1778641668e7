package fsm

import (
	"context"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// runWithRetry implements the per-trigger retry loop (spec §4.5
// "Per-trigger retry"): attempt runs up to maxRetries+1 times; every
// failure emits an Error event, and each failure that will be retried also
// appends an assistant+tool message pair carrying the error to state's
// trace, converting the failure into an in-band LLM learning signal instead
// of propagating it immediately. The final failure appends no pair; its
// error, if all attempts fail, is returned.
func runWithRetry(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, maxRetries int, attempt func(ctx context.Context, try int) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for try := 0; try <= maxRetries; try++ {
		err := attempt(ctx, try)
		if err == nil {
			return nil
		}
		lastErr = err

		_ = ectx.WriteKind(ctx, execctx.EventError, execctx.Event{Message: err.Error()})
		if try == maxRetries {
			break
		}

		state.AppendMessage(llmclient.Message{
			Role:    llmclient.RoleAssistant,
			Content: fmt.Sprintf("attempt %d failed, retrying: %v", try+1, err),
		})
		state.AppendMessage(llmclient.Message{
			Role:    llmclient.RoleTool,
			Content: err.Error(),
		})
	}
	return lastErr
}
