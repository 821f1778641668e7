package fsm

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// EndTrigger is the FSM's terminal trigger (spec §3 Transition's
// Plan variant: "used for end"). It performs no work; the driver's main
// loop recognizes Config.End by name and stops after running it.
type EndTrigger struct{}

func (EndTrigger) Name() string       { return "end" }
func (EndTrigger) Kind() execctx.Kind { return execctx.KindFSM }

func (EndTrigger) Run(_ context.Context, _ execctx.ExecutionContext, _ *MachineContext, _ string) error {
	return nil
}
