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
)

func TestStartTriggerSeedsObjectiveAsUserMessage(t *testing.T) {
	state := &MachineContext{}
	require.NoError(t, StartTrigger{}.Run(context.Background(), execctx.ExecutionContext{}, state, "find top orders"))
	require.Len(t, state.Trace(), 1)
	assert.Equal(t, llmclient.RoleUser, state.Trace()[0].Role)
	assert.Equal(t, "find top orders", state.Trace()[0].Content)
}

func TestStartTriggerSkipsEmptyObjective(t *testing.T) {
	state := &MachineContext{}
	require.NoError(t, StartTrigger{}.Run(context.Background(), execctx.ExecutionContext{}, state, ""))
	assert.Empty(t, state.Trace())
}

func TestEndTriggerIsNoop(t *testing.T) {
	state := &MachineContext{}
	require.NoError(t, EndTrigger{}.Run(context.Background(), execctx.ExecutionContext{}, state, "anything"))
	assert.Empty(t, state.Trace())
}

func newTriggerTestClient(t *testing.T, content string) *llmclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}],"usage":{"total_tokens":1}}`))
	}))
	t.Cleanup(srv.Close)
	return llmclient.New(llmclient.Config{BaseURL: srv.URL, Model: "m", HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)}})
}

func TestInsightTriggerRequiresAccumulatedTables(t *testing.T) {
	trigger := &InsightTrigger{LLM: newTriggerTestClient(t, "summary")}
	state := &MachineContext{}
	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "summarize")
	assert.Error(t, err)
}

func TestInsightTriggerCollectsInsightFromReply(t *testing.T) {
	trigger := &InsightTrigger{LLM: newTriggerTestClient(t, "revenue is trending up")}
	state := &MachineContext{}
	state.CollectTable(Table{Name: "t1"})

	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "summarize")
	require.NoError(t, err)
	require.Len(t, state.Insights, 1)
	assert.Equal(t, "revenue is trending up", state.Insights[0].Text)
}

func TestBuildDataAppTriggerRequiresTablesOrViz(t *testing.T) {
	trigger := &BuildDataAppTrigger{LLM: newTriggerTestClient(t, "{}")}
	state := &MachineContext{}
	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "build it")
	assert.Error(t, err)
}

func TestBuildDataAppTriggerFallsBackToDescriptionOnInvalidJSON(t *testing.T) {
	trigger := &BuildDataAppTrigger{LLM: newTriggerTestClient(t, "not json")}
	state := &MachineContext{}
	state.CollectTable(Table{Name: "t1"})

	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "sales dashboard")
	require.NoError(t, err)
	require.Len(t, state.DataApps, 1)
	assert.Equal(t, "sales_dashboard", state.DataApps[0].Name)
	assert.Equal(t, "not json", state.DataApps[0].Spec["description"])
}

func TestSaveAutomationTriggerSerializesTraceWithoutLLMCall(t *testing.T) {
	state := &MachineContext{}
	state.AppendMessage(llmclient.Message{Role: llmclient.RoleUser, Content: "step one"})

	err := SaveAutomationTrigger{}.Run(context.Background(), execctx.ExecutionContext{}, state, "nightly report")
	require.NoError(t, err)
	require.Len(t, state.Automations, 1)
	assert.Equal(t, "nightly_report", state.Automations[0].Name)
	steps, ok := state.Automations[0].Spec["steps"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, steps, 1)
	assert.Equal(t, "step one", steps[0]["content"])
}

func TestSubflowTriggerRequiresConfiguredDriver(t *testing.T) {
	trigger := &SubflowTrigger{}
	state := &MachineContext{}
	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "nested")
	assert.Error(t, err)
}

func TestSubflowTriggerMergesChildContextIntoParent(t *testing.T) {
	child := &stubTrigger{name: "child-end", kind: execctx.KindFSM, run: func(_ context.Context, _ execctx.ExecutionContext, s *MachineContext, _ string) error {
		s.CollectTable(Table{Name: "child-table"})
		return nil
	}}
	cfg := AgenticConfig{Start: "child-end", End: "child-end"}
	nested, err := NewDriver(cfg, map[string]Trigger{"child-end": child}, nil, nil)
	require.NoError(t, err)

	trigger := &SubflowTrigger{Driver: nested}
	state := &MachineContext{}
	err = trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "nested objective")
	require.NoError(t, err)
	require.Len(t, state.TableSnapshot(), 1)
	assert.Equal(t, "child-table", state.TableSnapshot()[0].Name)
}

func TestVisualizeTriggerRequiresALastTable(t *testing.T) {
	trigger := &VisualizeTrigger{LLM: newTriggerTestClient(t, "")}
	state := &MachineContext{}
	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "chart it")
	assert.Error(t, err)
}

func TestVisualizeTriggerRejectsChartTypeNotOffered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"1","function":{"name":"not_a_real_chart","arguments":"{}"}}
		]}}],"usage":{"total_tokens":1}}`))
	}))
	t.Cleanup(srv.Close)
	llm := llmclient.New(llmclient.Config{BaseURL: srv.URL, Model: "m", HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)}})

	trigger := &VisualizeTrigger{LLM: llm}
	state := &MachineContext{}
	state.CollectTable(Table{Name: "t", Rows: []map[string]any{{"x": 1}}})

	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "chart it")
	assert.Error(t, err)
}

func TestVisualizeTriggerCollectsChosenChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"1","function":{"name":"table","arguments":"{\"x\":\"col\"}"}}
		]}}],"usage":{"total_tokens":1}}`))
	}))
	t.Cleanup(srv.Close)
	llm := llmclient.New(llmclient.Config{BaseURL: srv.URL, Model: "m", HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)}})

	trigger := &VisualizeTrigger{LLM: llm}
	state := &MachineContext{}
	state.CollectTable(Table{Name: "t"})

	err := trigger.Run(context.Background(), execctx.ExecutionContext{}, state, "chart it")
	require.NoError(t, err)
	require.Len(t, state.VizSnapshot(), 1)
	assert.Equal(t, chartTable, state.VizSnapshot()[0].ChartType)
}
