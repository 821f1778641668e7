package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicRetainedMailboxAndLateSubscriber(t *testing.T) {
	topic := NewTopic[string]("chat")
	ctx := context.Background()

	require.NoError(t, topic.Send(ctx, "hello"))
	require.NoError(t, topic.Send(ctx, "world"))

	mailbox, live, err := topic.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, mailbox)

	require.NoError(t, topic.Send(ctx, "!"))
	select {
	case item := <-live:
		assert.Equal(t, "!", item)
	case <-time.After(time.Second):
		t.Fatal("expected a late item on the live channel")
	}
}

type mergeItem struct {
	text     string
	finished bool
}

func (m *mergeItem) Merge(otherAny any) bool {
	other, ok := otherAny.(*mergeItem)
	if !ok || m.finished {
		return false
	}
	m.text += other.text
	m.finished = other.finished
	return true
}

func TestTopicMergeCompactsContiguousDuplicates(t *testing.T) {
	topic := NewTopic[*mergeItem]("stream")
	ctx := context.Background()

	require.NoError(t, topic.Send(ctx, &mergeItem{text: "a"}))
	require.NoError(t, topic.Send(ctx, &mergeItem{text: "b"}))
	require.NoError(t, topic.Send(ctx, &mergeItem{text: "c", finished: true}))

	time.Sleep(10 * time.Millisecond)
	mailbox := topic.Close()
	require.Len(t, mailbox, 1)
	assert.Equal(t, "abc", mailbox[0].text)
	assert.True(t, mailbox[0].finished)
}

func TestBroadcasterCreateExistingTopicIsError(t *testing.T) {
	b := NewBroadcaster()
	_, err := CreateTopic[int](b, "topic")
	require.NoError(t, err)

	_, err = CreateTopic[int](b, "topic")
	assert.Error(t, err)
	assert.True(t, b.HasTopic("topic"))
}
