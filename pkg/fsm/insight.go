package fsm

import (
	"context"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// InsightTrigger asks the LLM to summarize the tables accumulated so far
// into a natural-language finding. It has no per-trigger retry budget
// (spec §4.5 names only Query, Visualize, and SemanticQuery for that).
type InsightTrigger struct {
	LLM *llmclient.Client
}

func (t *InsightTrigger) Name() string       { return "insight" }
func (t *InsightTrigger) Kind() execctx.Kind { return execctx.KindInsight }

func (t *InsightTrigger) Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error {
	tables := state.TableSnapshot()
	if len(tables) == 0 {
		return fmt.Errorf("insight: no tables accumulated to summarize")
	}

	prompt := fmt.Sprintf("Summarize the key findings across %d accumulated table(s) relevant to: %s", len(tables), objective)
	messages := append(state.BudgetedTrace(), llmclient.Message{Role: llmclient.RoleUser, Content: prompt})

	reply, _, err := t.LLM.Complete(ctx, messages, nil)
	if err != nil {
		return fmt.Errorf("insight: %w", err)
	}
	state.AppendMessage(reply)

	insight := Insight{Text: reply.Content}
	state.CollectInsight(insight)
	return ectx.WriteKind(ctx, execctx.EventArtifactCreated, execctx.Event{
		Artifact: map[string]any{"insight": insight.Text},
	})
}
