package fsm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// BuildDataAppTrigger asks the LLM to assemble a small app spec (JSON:
// layout of tables/charts) from the artifacts accumulated so far.
type BuildDataAppTrigger struct {
	LLM *llmclient.Client
}

func (t *BuildDataAppTrigger) Name() string       { return "build_data_app" }
func (t *BuildDataAppTrigger) Kind() execctx.Kind { return execctx.KindDataApp }

func (t *BuildDataAppTrigger) Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error {
	tables := state.TableSnapshot()
	viz := state.VizSnapshot()
	if len(tables) == 0 && len(viz) == 0 {
		return fmt.Errorf("build_data_app: no tables or visualizations to assemble into an app")
	}

	prompt := fmt.Sprintf(
		"Assemble a data-app spec as JSON (a layout referencing the %d table(s) and %d chart(s) produced so far) to satisfy: %s",
		len(tables), len(viz), objective,
	)
	messages := append(state.BudgetedTrace(), llmclient.Message{Role: llmclient.RoleUser, Content: prompt})

	reply, _, err := t.LLM.Complete(ctx, messages, nil)
	if err != nil {
		return fmt.Errorf("build_data_app: %w", err)
	}
	state.AppendMessage(reply)

	var spec map[string]any
	if err := json.Unmarshal([]byte(reply.Content), &spec); err != nil {
		spec = map[string]any{"description": reply.Content}
	}

	app := DataApp{Name: slugify(objective), Spec: spec}
	state.CollectDataApp(app)
	return ectx.WriteKind(ctx, execctx.EventDataAppCreated, execctx.Event{DataApp: spec})
}
