package fsm

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// StartTrigger seeds the conversation trace with the run's objective. It
// is always the Config.Start trigger and never fails.
type StartTrigger struct{}

func (StartTrigger) Name() string       { return "start" }
func (StartTrigger) Kind() execctx.Kind { return execctx.KindFSM }

func (StartTrigger) Run(_ context.Context, _ execctx.ExecutionContext, state *MachineContext, objective string) error {
	if objective != "" {
		state.AppendMessage(llmclient.Message{Role: llmclient.RoleUser, Content: objective})
	}
	return nil
}
