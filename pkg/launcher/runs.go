package launcher

import (
	"context"
	"sync"

	"github.com/oxy-run/oxy/pkg/eventbus"
	"github.com/oxy-run/oxy/pkg/execctx"
)

// runRegistry tracks one eventbus.Topic per in-flight run, keyed by the
// run's root Source.ID, and implements transport/sse.RunSource so the SSE
// server can find the topic a client asks to subscribe to.
type runRegistry struct {
	mu   sync.RWMutex
	runs map[string]*eventbus.Topic[execctx.Event]
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*eventbus.Topic[execctx.Event])}
}

// open registers a fresh topic for runID, closing any existing one of the
// same ID first (a restarted run reuses its ID).
func (r *runRegistry) open(runID string) *eventbus.Topic[execctx.Event] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.runs[runID]; ok {
		existing.CloseSilently()
	}
	topic := eventbus.NewTopic[execctx.Event](runID)
	r.runs[runID] = topic
	return topic
}

// Topic implements transport/sse.RunSource.
func (r *runRegistry) Topic(runID string) (*eventbus.Topic[execctx.Event], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.runs[runID]
	return t, ok
}

// close drops the topic for runID, flushing any buffered events.
func (r *runRegistry) close(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.runs[runID]; ok {
		t.Close()
		delete(r.runs, runID)
	}
}

// busWriter adapts an eventbus.Topic into an execctx.Writer, so a run's
// ExecutionContext can write events the SSE server streams out live.
type busWriter struct {
	topic *eventbus.Topic[execctx.Event]
}

func (w busWriter) Write(ctx context.Context, e execctx.Event) error {
	return w.topic.Send(ctx, e)
}
