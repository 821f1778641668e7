package executable

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/kerr"
)

type recordingWriter struct {
	mu     sync.Mutex
	events []execctx.Event
}

func (r *recordingWriter) Write(ctx context.Context, e execctx.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingWriter) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Message
	}
	return out
}

func newCtx(w execctx.Writer) execctx.ExecutionContext {
	return execctx.NewBuilder().
		WithSource(execctx.NewRootSource("root", execctx.KindWorkflow)).
		WithWriter(w).
		Build()
}

// sleepAndMessage sleeps (5-input) units then emits Message{input}, so that
// completion order is the reverse of input order.
type sleepAndMessage struct{}

func (sleepAndMessage) Execute(ctx context.Context, ectx execctx.ExecutionContext, input int) (int, error) {
	time.Sleep(time.Duration(5-input) * 5 * time.Millisecond)
	_ = ectx.WriteKind(ctx, execctx.EventMessage, execctx.Event{Message: fmt.Sprintf("%d", input)})
	return input, nil
}

func TestConcurrencyPreservesInputOrder(t *testing.T) {
	w := &recordingWriter{}
	ctx := newCtx(w)

	c := NewConcurrency[int, int](sleepAndMessage{}, 4)
	results, err := c.Execute(context.Background(), ctx, []int{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, []string{"1", "2", "3", "4"}, w.messages())
}

type alwaysErr struct{ n int }

func (a *alwaysErr) Execute(ctx context.Context, ectx execctx.ExecutionContext, input string) (string, error) {
	a.n++
	return "", kerr.New(kerr.IO, "test", fmt.Errorf("boom %d", a.n))
}

func TestRetryZeroMaxAttemptsBehavesAsInner(t *testing.T) {
	inner := &alwaysErr{}
	r := NewRetry[string, string](inner, NewExponentialBackoff(time.Millisecond, time.Millisecond, 0))
	_, err := r.Execute(context.Background(), newCtx(&recordingWriter{}), "x")
	require.Error(t, err)
	assert.Equal(t, 1, inner.n)
}

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	inner := &alwaysErr{}
	r := NewRetry[string, string](inner, NewExponentialBackoff(time.Millisecond, time.Millisecond, 3))
	_, err := r.Execute(context.Background(), newCtx(&recordingWriter{}), "x")
	require.Error(t, err)
	assert.Equal(t, 3, inner.n)
}

type constResult struct{ v string }

func (c constResult) Execute(ctx context.Context, ectx execctx.ExecutionContext, input string) (string, error) {
	return c.v, nil
}

func TestFallbackRunsSecondaryOnPredicateMatch(t *testing.T) {
	primary := constResult{v: ""}
	secondary := constResult{v: "from-secondary"}
	fb := NewFallback[string, string](primary, secondary, func(v string, err error) bool {
		return v == ""
	})
	out, err := fb.Execute(context.Background(), newCtx(&recordingWriter{}), "x")
	require.NoError(t, err)
	assert.Equal(t, "from-secondary", out)
}

type equalComparer struct{}

func (equalComparer) Equivalent(ctx context.Context, ectx execctx.ExecutionContext, a, b string) (bool, error) {
	return a == b, nil
}

func TestConsistencyPicksMaxAgreement(t *testing.T) {
	values := []string{"A", "A", "B"}
	strategy := &AgentScoreControl[string]{Compare: equalComparer{}}

	// Each concurrent branch receives the same input "x"; vary the
	// returned value by closing over an incrementing counter, since all
	// three branches would otherwise see identical input.
	var mu sync.Mutex
	i := 0
	counting := Func[string, string](func(ctx context.Context, ectx execctx.ExecutionContext, input string) (string, error) {
		mu.Lock()
		idx := i
		i++
		mu.Unlock()
		return values[idx], nil
	})
	consistency := NewConsistency[string, string](counting, 3, strategy)

	result, err := consistency.Execute(context.Background(), newCtx(&recordingWriter{}), "x")
	require.NoError(t, err)
	assert.Equal(t, "A", result.Value)
	assert.Equal(t, 1.0, result.Score)
}

func TestConsistencySingleResultScoresOne(t *testing.T) {
	inner := constResult{v: "only"}
	strategy := &AgentScoreControl[string]{Compare: equalComparer{}}
	consistency := NewConsistency[string, string](inner, 1, strategy)
	result, err := consistency.Execute(context.Background(), newCtx(&recordingWriter{}), "x")
	require.NoError(t, err)
	assert.Equal(t, "only", result.Value)
	assert.Equal(t, 1.0, result.Score)
}
