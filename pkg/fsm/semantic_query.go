package fsm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/llmclient"
	"github.com/oxy-run/oxy/pkg/toolregistry"
)

// semanticQueryToolType is the tool-registry type a vectorsearch.Executor
// (pkg/tool/vectorsearch) registers under.
const semanticQueryToolType = "semantic_query"

// SemanticQueryTrigger asks the LLM to refine its objective into a search
// query, dispatches it through the tool registry's semantic-search
// executor, and collects the matches as a Table (spec §4.5: one of the
// three triggers with a per-trigger retry budget).
type SemanticQueryTrigger struct {
	LLM        *llmclient.Client
	Tools      *toolregistry.Registry
	Collection string
	MaxRetries int
}

func (t *SemanticQueryTrigger) Name() string       { return "semantic_query" }
func (t *SemanticQueryTrigger) Kind() execctx.Kind { return execctx.KindSemantic }

func (t *SemanticQueryTrigger) Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error {
	return runWithRetry(ctx, ectx, state, t.MaxRetries, func(ctx context.Context, _ int) error {
		query, err := t.refineQuery(ctx, state, objective)
		if err != nil {
			return fmt.Errorf("semantic_query: refine query: %w", err)
		}

		raw, err := json.Marshal(map[string]any{"collection": t.Collection, "query": query})
		if err != nil {
			return fmt.Errorf("semantic_query: marshal request: %w", err)
		}
		out, err := t.Tools.Execute(ctx, ectx, semanticQueryToolType, raw)
		if err != nil {
			return fmt.Errorf("semantic_query: execute: %w", err)
		}

		table := tableFromOutput(objective, out)
		state.CollectTable(table)
		return ectx.WriteChunk(ctx, execctx.Chunk{
			Delta: execctx.Output{
				Kind:        execctx.OutputTable,
				TableName:   table.Name,
				TableRows:   table.Rows,
				TableSchema: table.Schema,
			},
			Finished: true,
		})
	})
}

func (t *SemanticQueryTrigger) refineQuery(ctx context.Context, state *MachineContext, objective string) (string, error) {
	messages := append(state.BudgetedTrace(), llmclient.Message{
		Role:    llmclient.RoleUser,
		Content: fmt.Sprintf("Write a concise semantic search query to satisfy: %s", objective),
	})
	reply, _, err := t.LLM.Complete(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	state.AppendMessage(reply)
	if strings.TrimSpace(reply.Content) == "" {
		return "", fmt.Errorf("LLM returned an empty query")
	}
	return reply.Content, nil
}
