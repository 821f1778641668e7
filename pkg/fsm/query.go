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

// sqlToolType is the tool-registry type a Query trigger expects a
// database-specific executor to register under (SQL dialects themselves
// are out of scope per spec §1's Non-goals; the kernel only needs a name
// to route through).
const sqlToolType = "sql"

// QueryTrigger asks the LLM to write SQL satisfying its objective, runs it
// through the tool registry, and collects the result as a Table (spec §4.5
// scenario 1).
type QueryTrigger struct {
	LLM        *llmclient.Client
	Tools      *toolregistry.Registry
	MaxRetries int
}

func (t *QueryTrigger) Name() string       { return "query" }
func (t *QueryTrigger) Kind() execctx.Kind { return execctx.KindQuery }

// Run implements the per-trigger retry loop (spec §4.5): a failed SQL
// execution is folded back into the conversation trace and the LLM gets
// another attempt at the query, up to MaxRetries times.
func (t *QueryTrigger) Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error {
	return runWithRetry(ctx, ectx, state, t.MaxRetries, func(ctx context.Context, _ int) error {
		sql, err := t.generateSQL(ctx, state, objective)
		if err != nil {
			return fmt.Errorf("query: generate SQL: %w", err)
		}
		if err := ectx.WriteChunk(ctx, execctx.Chunk{
			Delta:    execctx.Output{Kind: execctx.OutputSQL, SQL: sql},
			Finished: true,
		}); err != nil {
			return err
		}

		raw, err := json.Marshal(map[string]string{"sql": sql})
		if err != nil {
			return fmt.Errorf("query: marshal tool input: %w", err)
		}
		out, err := t.Tools.Execute(ctx, ectx, sqlToolType, raw)
		if err != nil {
			return fmt.Errorf("query: execute SQL: %w", err)
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

func (t *QueryTrigger) generateSQL(ctx context.Context, state *MachineContext, objective string) (string, error) {
	messages := append(state.BudgetedTrace(), llmclient.Message{
		Role:    llmclient.RoleUser,
		Content: fmt.Sprintf("Write a single SQL query to satisfy: %s", objective),
	})
	reply, _, err := t.LLM.Complete(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	state.AppendMessage(reply)
	if strings.TrimSpace(reply.Content) == "" {
		return "", fmt.Errorf("LLM returned no SQL")
	}
	return reply.Content, nil
}

// tableFromOutput flattens a tool-registry result into a Table, slugifying
// name (spec §4.5 scenario 1: "top 10 orders by revenue" -> table name
// "top_10_orders_by_revenue").
func tableFromOutput(name string, out execctx.OutputContainer) Table {
	t := Table{Name: slugify(name)}
	switch out.Kind {
	case execctx.ContainerSingle:
		fillTableFromOutput(&t, out.Single)
	case execctx.ContainerList:
		for _, o := range out.List {
			fillTableFromOutput(&t, o)
		}
	case execctx.ContainerMetadata:
		fillTableFromOutput(&t, out.Single)
		for _, o := range out.List {
			fillTableFromOutput(&t, o)
		}
	}
	return t
}

func fillTableFromOutput(t *Table, o execctx.Output) {
	if o.Kind == execctx.OutputTable {
		t.Rows = append(t.Rows, o.TableRows...)
		if len(o.TableSchema) > 0 {
			t.Schema = o.TableSchema
		}
		return
	}
	if text := outputAsText(o); text != "" {
		t.Rows = append(t.Rows, map[string]any{"text": text})
	}
}

func outputAsText(o execctx.Output) string {
	switch o.Kind {
	case execctx.OutputText:
		return o.Text
	case execctx.OutputSQL:
		return o.SQL
	case execctx.OutputFile:
		return o.FilePath
	default:
		return ""
	}
}

// slugify lowercases s and collapses runs of non-alphanumeric characters
// into single underscores, trimming leading/trailing ones. No slug
// library appears anywhere in the dependency pack, so this stays on the
// standard library rather than introducing an ungrounded dependency.
func slugify(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
