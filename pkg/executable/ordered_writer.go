package executable

import (
	"context"
	"sync"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// OrderedWriter merges events from N concurrent branches so that, on the
// outer writer, all events from branch k appear before any event from
// branch k+1 — input order, not completion order (spec §4.1 "Ordering
// guarantees", §8 testable property 2).
type OrderedWriter struct {
	outer execctx.Writer

	mu          sync.Mutex
	next        int
	buffered    map[int][]execctx.Event
	finished    map[int]bool
}

// NewOrderedWriter creates an OrderedWriter fanning into outer.
func NewOrderedWriter(outer execctx.Writer) *OrderedWriter {
	return &OrderedWriter{
		outer:    outer,
		buffered: make(map[int][]execctx.Event),
		finished: make(map[int]bool),
	}
}

// WriterFor returns the Writer a branch at index idx should use.
func (o *OrderedWriter) WriterFor(idx int) execctx.Writer {
	return execctx.WriterFunc(func(ctx context.Context, e execctx.Event) error {
		o.mu.Lock()
		defer o.mu.Unlock()
		if idx == o.next && o.outer != nil {
			return o.outer.Write(ctx, e)
		}
		o.buffered[idx] = append(o.buffered[idx], e)
		return nil
	})
}

// Finish marks branch idx as complete and flushes any now-contiguous
// buffered branches in order.
func (o *OrderedWriter) Finish(ctx context.Context, idx int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished[idx] = true
	return o.flushLocked(ctx)
}

func (o *OrderedWriter) flushLocked(ctx context.Context) error {
	for o.finished[o.next] {
		events := o.buffered[o.next]
		delete(o.buffered, o.next)
		delete(o.finished, o.next)
		if o.outer != nil {
			for _, e := range events {
				if err := o.outer.Write(ctx, e); err != nil {
					return err
				}
			}
		}
		o.next++
	}
	return nil
}
