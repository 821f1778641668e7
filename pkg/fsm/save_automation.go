package fsm

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// SaveAutomationTrigger persists the run's conversation trace as a
// replayable Automation spec. Deterministic; no LLM call is needed since
// the trace is already fully materialized in MachineContext.
type SaveAutomationTrigger struct{}

func (SaveAutomationTrigger) Name() string       { return "save_automation" }
func (SaveAutomationTrigger) Kind() execctx.Kind { return execctx.KindAutomation }

func (SaveAutomationTrigger) Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error {
	trace := state.Trace()
	steps := make([]map[string]any, 0, len(trace))
	for _, m := range trace {
		steps = append(steps, map[string]any{"role": string(m.Role), "content": m.Content})
	}

	automation := Automation{
		Name: slugify(objective),
		Spec: map[string]any{"steps": steps},
	}
	state.CollectAutomation(automation)
	return ectx.WriteKind(ctx, execctx.EventArtifactCreated, execctx.Event{
		Artifact: map[string]any{"automation": automation.Name},
	})
}
