package fsm

import (
	"context"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// VisualizeTrigger runs the deterministic chart-scoring heuristic over the
// most recently collected table, then restricts the LLM's tool menu to the
// resulting candidates (spec §4.5 "Visualization recommendation").
type VisualizeTrigger struct {
	LLM        *llmclient.Client
	MaxRetries int
}

func (t *VisualizeTrigger) Name() string       { return "visualize" }
func (t *VisualizeTrigger) Kind() execctx.Kind { return execctx.KindVisualize }

func (t *VisualizeTrigger) Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error {
	table, ok := state.LastTable()
	if !ok {
		return fmt.Errorf("visualize: no table available to chart")
	}
	candidates := RecommendCharts(table)

	return runWithRetry(ctx, ectx, state, t.MaxRetries, func(ctx context.Context, _ int) error {
		viz, err := t.chooseChart(ctx, state, objective, table, candidates)
		if err != nil {
			return fmt.Errorf("visualize: %w", err)
		}
		state.CollectViz(viz)
		return ectx.WriteKind(ctx, execctx.EventVizGenerated, execctx.Event{Viz: viz.Params})
	})
}

// chartArgs is the struct every chart-type tool's schema is reflected from.
type chartArgs struct {
	X string `json:"x,omitempty" jsonschema:"description=Column for the x axis/category."`
	Y string `json:"y,omitempty" jsonschema:"description=Column for the y axis/measure."`
}

func (t *VisualizeTrigger) chooseChart(ctx context.Context, state *MachineContext, objective string, table Table, candidates []ChartCandidate) (Viz, error) {
	byName := make(map[string]ChartCandidate, len(candidates))
	tools := make([]llmclient.ToolDefinition, 0, len(candidates))
	params := llmclient.ParametersFor(chartArgs{})
	for _, c := range candidates {
		byName[c.ChartType] = c
		tools = append(tools, llmclient.ToolDefinition{
			Name:        c.ChartType,
			Description: c.Rationale,
			Parameters:  params,
		})
	}

	prompt := fmt.Sprintf("Pick the best chart for table %q to satisfy: %s", table.Name, objective)
	messages := append(state.BudgetedTrace(), llmclient.Message{Role: llmclient.RoleUser, Content: prompt})

	reply, _, err := t.LLM.CompleteRequired(ctx, messages, tools)
	if err != nil {
		return Viz{}, err
	}
	state.AppendMessage(reply)

	if len(reply.ToolCalls) != 1 {
		return Viz{}, fmt.Errorf("expected exactly one chart choice, got %d", len(reply.ToolCalls))
	}
	call := reply.ToolCalls[0]
	chosen, ok := byName[call.Name]
	if !ok {
		return Viz{}, fmt.Errorf("LLM chose unoffered chart type %q", call.Name)
	}

	params := map[string]any{"table": table.Name, "chart_type": chosen.ChartType}
	for k, v := range call.Args {
		params[k] = v
	}
	return Viz{ChartType: chosen.ChartType, Params: params, Score: chosen.Score, Rationale: chosen.Rationale}, nil
}
