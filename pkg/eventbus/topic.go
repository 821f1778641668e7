// Package eventbus implements the kernel's Topic/Broadcaster event bus
// (spec §4.3): a named broadcast channel with a retained, merge-compacting
// mailbox and fan-out to subscribers, using an actor-style channel
// ownership idiom generalized to the generic registry pattern of
// pkg/registry.BaseRegistry.
package eventbus

import (
	"context"
	"fmt"
	"sync"
)

// Mergeable is implemented by items whose adjacent occurrences in a mailbox
// may be compacted instead of appended (spec §4.3 merge semantics).
type Mergeable interface {
	Merge(other any) bool
}

const (
	defaultInboundCapacity = 256
	defaultSystemCapacity  = 16
	defaultFanoutCapacity  = 64
)

type subscribeMsg[T any] struct {
	resultCh chan subscribeResult[T]
}

type subscribeResult[T any] struct {
	mailbox []T
	ch      chan T
}

type removeMsg struct {
	doneCh chan struct{}
}

// Topic is a single-actor-owned broadcast channel for items of type T
// (spec §4.3 "Topic actor"). The owning goroutine is the only writer of
// mailbox and subscribers; everything else communicates over channels.
type Topic[T any] struct {
	name string

	inbound chan T
	system  chan any

	mu          sync.Mutex
	mailbox     []T
	subscribers map[chan T]struct{}

	done chan struct{}
}

// NewTopic starts the topic's actor goroutine and returns the handle.
func NewTopic[T any](name string) *Topic[T] {
	t := &Topic[T]{
		name:        name,
		inbound:     make(chan T, defaultInboundCapacity),
		system:      make(chan any, defaultSystemCapacity),
		subscribers: make(map[chan T]struct{}),
		done:        make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Topic[T]) run() {
	defer close(t.done)
	for {
		select {
		case msg, ok := <-t.system:
			if !ok {
				return
			}
			// Apply items Send already queued before handling the system
			// message, so they are in the mailbox snapshot or final mailbox.
		drain:
			for {
				select {
				case item := <-t.inbound:
					t.appendOrMerge(item)
					t.fanout(item)
				default:
					break drain
				}
			}
			switch m := msg.(type) {
			case subscribeMsg[T]:
				t.mu.Lock()
				snapshot := append([]T(nil), t.mailbox...)
				ch := make(chan T, defaultFanoutCapacity)
				t.subscribers[ch] = struct{}{}
				t.mu.Unlock()
				m.resultCh <- subscribeResult[T]{mailbox: snapshot, ch: ch}
			case removeMsg:
				t.mu.Lock()
				for ch := range t.subscribers {
					close(ch)
				}
				t.subscribers = map[chan T]struct{}{}
				t.mu.Unlock()
				close(m.doneCh)
				return
			}
		case item, ok := <-t.inbound:
			if !ok {
				return
			}
			t.appendOrMerge(item)
			t.fanout(item)
		}
	}
}

func (t *Topic[T]) appendOrMerge(item T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.mailbox) > 0 {
		if mergeable, ok := any(t.mailbox[len(t.mailbox)-1]).(Mergeable); ok {
			if mergeable.Merge(item) {
				return
			}
		}
	}
	t.mailbox = append(t.mailbox, item)
}

func (t *Topic[T]) fanout(item T) {
	t.mu.Lock()
	chans := make([]chan T, 0, len(t.subscribers))
	for ch := range t.subscribers {
		chans = append(chans, ch)
	}
	t.mu.Unlock()
	for _, ch := range chans {
		select {
		case ch <- item:
		default:
			// Slow subscriber: fan-out errors never propagate to the
			// sender (spec §4.3). The item is simply dropped for this
			// subscriber; lagged-receiver semantics (spec §5).
		}
	}
}

// Send enqueues an item. Blocks until the inbound queue has room or ctx is
// cancelled, applying backpressure at the producer (spec §5).
func (t *Topic[T]) Send(ctx context.Context, item T) error {
	select {
	case t.inbound <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return fmt.Errorf("eventbus: topic %q closed", t.name)
	}
}

// Subscribe returns the full retained mailbox plus a live channel for all
// items sent after subscribe (spec §4.3: a late subscriber sees all prior
// items plus all future ones).
func (t *Topic[T]) Subscribe(ctx context.Context) ([]T, <-chan T, error) {
	result := make(chan subscribeResult[T], 1)
	select {
	case t.system <- subscribeMsg[T]{resultCh: result}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-t.done:
		return nil, nil, fmt.Errorf("eventbus: topic %q closed", t.name)
	}
	select {
	case r := <-result:
		return r.mailbox, r.ch, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// Close shuts the topic down, closing every subscriber channel, and
// returns the final mailbox contents.
func (t *Topic[T]) Close() []T {
	doneCh := make(chan struct{})
	select {
	case t.system <- removeMsg{doneCh: doneCh}:
		<-doneCh
	case <-t.done:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]T(nil), t.mailbox...)
}

// Name returns the topic's name.
func (t *Topic[T]) Name() string { return t.name }

// CloseSilently closes the topic without requiring its type parameter at
// the call site, used by Broadcaster.RemoveTopic.
func (t *Topic[T]) CloseSilently() { t.Close() }
