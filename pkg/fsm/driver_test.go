package fsm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/httpclient"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

type stubTrigger struct {
	name string
	kind execctx.Kind
	run  func(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error
}

func (s *stubTrigger) Name() string       { return s.name }
func (s *stubTrigger) Kind() execctx.Kind { return s.kind }
func (s *stubTrigger) Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error {
	if s.run == nil {
		return nil
	}
	return s.run(ctx, ectx, state, objective)
}

func noopTrigger(name string) *stubTrigger { return &stubTrigger{name: name, kind: execctx.KindFSM} }

func TestNewDriverRejectsUnregisteredStart(t *testing.T) {
	_, err := NewDriver(AgenticConfig{Start: "missing", End: "end"}, map[string]Trigger{"end": noopTrigger("end")}, nil, nil)
	assert.Error(t, err)
}

func TestNewDriverRejectsAutoCandidateNotRegistered(t *testing.T) {
	cfg := AgenticConfig{
		Start: "start", End: "end",
		Transitions: []Transition{{Trigger: "start", Next: Auto("missing")}},
	}
	triggers := map[string]Trigger{"start": noopTrigger("start"), "end": noopTrigger("end")}
	_, err := NewDriver(cfg, triggers, nil, nil)
	assert.Error(t, err)
}

func TestDriverRunsAlwaysChainToEnd(t *testing.T) {
	var ran []string
	mk := func(name string) *stubTrigger {
		return &stubTrigger{name: name, kind: execctx.KindFSM, run: func(_ context.Context, _ execctx.ExecutionContext, _ *MachineContext, _ string) error {
			ran = append(ran, name)
			return nil
		}}
	}
	cfg := AgenticConfig{
		Start: "start", End: "end",
		Transitions: []Transition{
			{Trigger: "start", Next: Always("middle")},
			{Trigger: "middle", Next: Always("end")},
		},
	}
	triggers := map[string]Trigger{"start": mk("start"), "middle": mk("middle"), "end": mk("end")}

	d, err := NewDriver(cfg, triggers, nil, nil)
	require.NoError(t, err)

	state, err := d.Run(context.Background(), execctx.ExecutionContext{}, "do it")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, []string{"start", "middle", "end"}, ran)
}

func TestDriverIterationOverflowIsFatal(t *testing.T) {
	cfg := AgenticConfig{
		Start: "a", End: "end", MaxIterations: 2,
		Transitions: []Transition{
			{Trigger: "a", Next: Always("b")},
			{Trigger: "b", Next: Always("a")},
		},
	}
	triggers := map[string]Trigger{"a": noopTrigger("a"), "b": noopTrigger("b"), "end": noopTrigger("end")}

	d, err := NewDriver(cfg, triggers, nil, nil)
	require.NoError(t, err)

	_, err = d.Run(context.Background(), execctx.ExecutionContext{}, "")
	assert.Error(t, err)
}

func TestDriverTriggerErrorAbortsRun(t *testing.T) {
	failing := &stubTrigger{name: "start", kind: execctx.KindFSM, run: func(context.Context, execctx.ExecutionContext, *MachineContext, string) error {
		return assert.AnError
	}}
	cfg := AgenticConfig{Start: "start", End: "end"}
	triggers := map[string]Trigger{"start": failing, "end": noopTrigger("end")}

	d, err := NewDriver(cfg, triggers, nil, nil)
	require.NoError(t, err)

	_, err = d.Run(context.Background(), execctx.ExecutionContext{}, "")
	assert.Error(t, err)
}

func newAutoTestDriver(t *testing.T, handler http.HandlerFunc, candidates ...string) *Driver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	llm := llmclient.New(llmclient.Config{
		BaseURL: srv.URL, Model: "test-model",
		HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)},
	})

	triggers := map[string]Trigger{"start": noopTrigger("start"), "end": noopTrigger("end")}
	transitions := []Transition{{Trigger: "start", Next: Auto(candidates...)}}
	for _, c := range candidates {
		triggers[c] = noopTrigger(c)
		transitions = append(transitions, Transition{Trigger: c, Next: Always("end")})
	}
	cfg := AgenticConfig{
		Start: "start", End: "end",
		Transitions: transitions,
	}
	d, err := NewDriver(cfg, triggers, llm, nil)
	require.NoError(t, err)
	return d
}

func TestDriverAutoTransitionChoosesCandidate(t *testing.T) {
	d := newAutoTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"1","function":{"name":"insight","arguments":"{\"objective\":\"summarize\"}"}}
		]}}],"usage":{"total_tokens":1}}`))
	}, "insight")

	state, err := d.Run(context.Background(), execctx.ExecutionContext{}, "go")
	require.NoError(t, err)
	assert.NotNil(t, state)
}

func TestDriverAutoTransitionRejectsMultipleToolCalls(t *testing.T) {
	d := newAutoTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"1","function":{"name":"insight","arguments":"{}"}},
			{"id":"2","function":{"name":"end","arguments":"{}"}}
		]}}],"usage":{"total_tokens":1}}`))
	}, "insight")

	_, err := d.Run(context.Background(), execctx.ExecutionContext{}, "go")
	assert.Error(t, err)
}

func TestDriverAutoTransitionRejectsUnofferedTrigger(t *testing.T) {
	d := newAutoTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"1","function":{"name":"not_offered","arguments":"{}"}}
		]}}],"usage":{"total_tokens":1}}`))
	}, "insight")

	_, err := d.Run(context.Background(), execctx.ExecutionContext{}, "go")
	assert.Error(t, err)
}

func TestChooseNextOffersEndAlongsideCandidates(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"1","function":{"name":"end","arguments":"{}"}}
		]}}],"usage":{"total_tokens":1}}`))
	}))
	t.Cleanup(srv.Close)

	llm := llmclient.New(llmclient.Config{BaseURL: srv.URL, Model: "m", HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)}})
	d := &Driver{Config: AgenticConfig{End: "end"}, LLM: llm}

	next, _, err := d.chooseNext(context.Background(), &MachineContext{}, []string{"insight"})
	require.NoError(t, err)
	assert.Equal(t, "end", next)

	tools, _ := captured["tools"].([]any)
	names := make([]string, 0, len(tools))
	for _, raw := range tools {
		m := raw.(map[string]any)
		fn := m["function"].(map[string]any)
		names = append(names, fn["name"].(string))
	}
	assert.ElementsMatch(t, []string{"insight", "end"}, names)
}
