package eventbus

import (
	"fmt"
	"sync"
)

// Broadcaster holds a map of topic_name -> topic, exactly as spec §4.3
// describes (create_topic/subscribe/remove_topic/has_topic). It is
// intentionally untyped (topics are stored as `any` and recovered via
// Handle's type parameter) because Go generics cannot express a
// heterogeneous map of Topic[T] for varying T in one struct field.
type Broadcaster struct {
	mu     sync.RWMutex
	topics map[string]any
}

// NewBroadcaster returns an empty process-global broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{topics: make(map[string]any)}
}

// CreateTopic registers a new Topic[T] under name. Creating an existing
// topic is an error (spec §4.3).
func CreateTopic[T any](b *Broadcaster, name string) (*Topic[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.topics[name]; exists {
		return nil, fmt.Errorf("eventbus: topic %q already exists", name)
	}
	t := NewTopic[T](name)
	b.topics[name] = t
	return t, nil
}

// GetTopic fetches a previously-created topic by name and type. Returns
// (nil, false) if absent or registered under a different T.
func GetTopic[T any](b *Broadcaster, name string) (*Topic[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	raw, ok := b.topics[name]
	if !ok {
		return nil, false
	}
	t, ok := raw.(*Topic[T])
	return t, ok
}

// HasTopic reports whether name is registered.
func (b *Broadcaster) HasTopic(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.topics[name]
	return ok
}

// RemoveTopic closes the named topic and discards its final mailbox;
// RemoveTopicTyped returns the mailbox to callers that know T.
func (b *Broadcaster) RemoveTopic(name string) error {
	b.mu.Lock()
	raw, ok := b.topics[name]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("eventbus: topic %q not found", name)
	}
	delete(b.topics, name)
	b.mu.Unlock()

	if closer, ok := raw.(interface{ CloseSilently() }); ok {
		closer.CloseSilently()
	}
	return nil
}

// RemoveTopicTyped closes the named topic of type T and returns its final
// mailbox contents.
func RemoveTopicTyped[T any](b *Broadcaster, name string) ([]T, error) {
	b.mu.Lock()
	raw, ok := b.topics[name]
	if !ok {
		b.mu.Unlock()
		return nil, fmt.Errorf("eventbus: topic %q not found", name)
	}
	delete(b.topics, name)
	b.mu.Unlock()

	t, ok := raw.(*Topic[T])
	if !ok {
		return nil, fmt.Errorf("eventbus: topic %q registered with a different type", name)
	}
	return t.Close(), nil
}
