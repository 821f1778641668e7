package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/httpclient"
)

type stubToolCaller struct {
	calls []string
	reply string
}

func (s *stubToolCaller) CallTool(_ context.Context, name string, _ map[string]any) (string, error) {
	s.calls = append(s.calls, name)
	return s.reply, nil
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, New(Config{BaseURL: srv.URL, Model: "test-model", HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)}})
}

func TestCompleteReturnsAssistantMessage(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}],"usage":{"total_tokens":5}}`))
	})

	msg, tokens, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi there", msg.Content)
	assert.Equal(t, 5, tokens)
}

func TestCompletePropagatesHTTPErrors(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})

	_, _, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}}, nil)
	assert.Error(t, err)
}

func TestRunStopsWhenNoToolCallsRequested(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"done"}}],"usage":{"total_tokens":1}}`))
	})
	caller := &stubToolCaller{}

	transcript, err := client.Run(context.Background(), []Message{{Role: RoleUser, Content: "go"}}, nil, caller)
	require.NoError(t, err)
	assert.Empty(t, caller.calls)
	assert.Equal(t, "done", transcript[len(transcript)-1].Content)
}

func TestRunDispatchesToolCallsAndReturnsFinalAnswer(t *testing.T) {
	requestNum := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestNum++
		var body wireRequest
		_ = json.NewDecoder(r.Body).Decode(&body)

		if requestNum == 1 {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[
				{"id":"1","function":{"name":"search","arguments":"{\"q\":\"go\"}"}}
			]}}],"usage":{"total_tokens":3}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"the answer"}}],"usage":{"total_tokens":2}}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Model: "test-model", MaxIterations: 3, HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)}})
	caller := &stubToolCaller{reply: "search result"}

	transcript, err := client.Run(context.Background(), []Message{{Role: RoleUser, Content: "find it"}}, []ToolDefinition{{Name: "search"}}, caller)
	require.NoError(t, err)
	assert.Equal(t, []string{"search"}, caller.calls)
	assert.Equal(t, "the answer", transcript[len(transcript)-1].Content)

	var foundToolMsg bool
	for _, m := range transcript {
		if m.Role == RoleTool && m.Content == "search result" {
			foundToolMsg = true
		}
	}
	assert.True(t, foundToolMsg)
}

func TestRunFailsAfterExceedingMaxIterations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"1","function":{"name":"loop","arguments":"{}"}}
		]}}],"usage":{"total_tokens":1}}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Model: "test-model", MaxIterations: 2, HTTPOptions: []httpclient.Option{httpclient.WithMaxRetries(0)}})
	caller := &stubToolCaller{reply: "ok"}

	_, err := client.Run(context.Background(), []Message{{Role: RoleUser, Content: "loop forever"}}, []ToolDefinition{{Name: "loop"}}, caller)
	assert.Error(t, err)
}
