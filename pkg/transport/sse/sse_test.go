package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/eventbus"
	"github.com/oxy-run/oxy/pkg/execctx"
)

type fakeRunSource struct {
	topics map[string]*eventbus.Topic[execctx.Event]
}

func (f *fakeRunSource) Topic(runID string) (*eventbus.Topic[execctx.Event], bool) {
	t, ok := f.topics[runID]
	return t, ok
}

func TestHandleEventsReturns404ForUnknownRun(t *testing.T) {
	srv := New(&fakeRunSource{topics: map[string]*eventbus.Topic[execctx.Event]{}}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/runs/missing/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleEventsStreamsBacklogThenLiveEvents(t *testing.T) {
	topic := eventbus.NewTopic[execctx.Event]("run-1")
	require.NoError(t, topic.Send(context.Background(), execctx.Event{Kind: execctx.EventStarted, Name: "start"}))

	srv := New(&fakeRunSource{topics: map[string]*eventbus.Topic[execctx.Event]{"run-1": topic}}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/runs/run-1/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "event: started"))

	require.NoError(t, topic.Send(context.Background(), execctx.Event{Kind: execctx.EventFinished, Message: "done"}))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: finished") {
			break
		}
	}
}

func TestWriterTopicSendsIntoTopic(t *testing.T) {
	topic := eventbus.NewTopic[execctx.Event]("run-2")
	w := WriterTopic(topic)
	require.NoError(t, w.Write(context.Background(), execctx.Event{Kind: execctx.EventMessage, Message: "hi"}))

	backlog, _, err := topic.Subscribe(context.Background())
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, "hi", backlog[0].Message)
}
