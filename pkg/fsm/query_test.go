package fsm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/httpclient"
	"github.com/oxy-run/oxy/pkg/llmclient"
	"github.com/oxy-run/oxy/pkg/toolregistry"
)

func TestSlugifyMatchesScenarioExample(t *testing.T) {
	assert.Equal(t, "top_10_orders_by_revenue", slugify("top 10 orders by revenue"))
}

func TestSlugifyCollapsesRepeatedSeparatorsAndTrims(t *testing.T) {
	assert.Equal(t, "a_b_c", slugify("  a---b__c!! "))
}

type sqlStubExecutor struct {
	toolType string
	output   execctx.OutputContainer
	err      error
	lastRaw  []byte
	calls    int
}

func (s *sqlStubExecutor) Name() string             { return "sql-stub" }
func (s *sqlStubExecutor) CanHandle(tt string) bool  { return tt == s.toolType }
func (s *sqlStubExecutor) Execute(_ context.Context, _ execctx.ExecutionContext, _ string, raw []byte) (execctx.OutputContainer, error) {
	s.calls++
	s.lastRaw = raw
	return s.output, s.err
}

func newQueryTestClient(t *testing.T, handler http.HandlerFunc) *llmclient.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return llmclient.New(llmclient.Config{BaseURL: srv.URL, Model: "m", HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)}})
}

func TestQueryTriggerCollectsSlugifiedTable(t *testing.T) {
	llm := newQueryTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"SELECT 1"}}],"usage":{"total_tokens":1}}`))
	})
	tools := toolregistry.NewRegistry(nil)
	exec := &sqlStubExecutor{
		toolType: sqlToolType,
		output: execctx.SingleOutput(execctx.Output{
			Kind:      execctx.OutputTable,
			TableRows: []map[string]any{{"n": 1}},
		}),
	}
	require.NoError(t, tools.Register(exec))

	trigger := &QueryTrigger{LLM: llm, Tools: tools, MaxRetries: 0}
	state := &MachineContext{}

	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "top 10 orders by revenue")
	require.NoError(t, err)

	tables := state.TableSnapshot()
	require.Len(t, tables, 1)
	assert.Equal(t, "top_10_orders_by_revenue", tables[0].Name)
	assert.Equal(t, 1, exec.calls)
}

func TestQueryTriggerRetriesOnToolFailure(t *testing.T) {
	llm := newQueryTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"SELECT 1"}}],"usage":{"total_tokens":1}}`))
	})
	tools := toolregistry.NewRegistry(nil)
	calls := 0
	exec := &stubToolFunc{toolType: sqlToolType, fn: func() (execctx.OutputContainer, error) {
		calls++
		if calls < 2 {
			return execctx.OutputContainer{}, assert.AnError
		}
		return execctx.SingleOutput(execctx.Output{Kind: execctx.OutputTable, TableRows: []map[string]any{{"n": 1}}}), nil
	}}
	require.NoError(t, tools.Register(exec))

	trigger := &QueryTrigger{LLM: llm, Tools: tools, MaxRetries: 1}
	state := &MachineContext{}

	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "retry me")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, state.TableSnapshot(), 1)
}

type stubToolFunc struct {
	toolType string
	fn       func() (execctx.OutputContainer, error)
}

func (s *stubToolFunc) Name() string            { return "stub-fn" }
func (s *stubToolFunc) CanHandle(tt string) bool { return tt == s.toolType }
func (s *stubToolFunc) Execute(context.Context, execctx.ExecutionContext, string, []byte) (execctx.OutputContainer, error) {
	return s.fn()
}
