package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryNotifierDeliversEvents(t *testing.T) {
	n := NewMemoryNotifier()
	ctx := context.Background()

	events, cancel, err := n.Subscribe(ctx, "c1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, n.Publish(ctx, "c1"))

	select {
	case got := <-events:
		require.Equal(t, "c1", got)
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestMemoryNotifierScopedPerConversation(t *testing.T) {
	n := NewMemoryNotifier()
	ctx := context.Background()

	events, cancel, err := n.Subscribe(ctx, "c1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, n.Publish(ctx, "c2"))

	select {
	case <-events:
		t.Fatal("received event for another conversation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryNotifierCancelClosesChannel(t *testing.T) {
	n := NewMemoryNotifier()
	ctx := context.Background()

	events, cancel, err := n.Subscribe(ctx, "c1")
	require.NoError(t, err)
	cancel()

	_, ok := <-events
	require.False(t, ok)

	// Publishing after cancel must not panic or block.
	require.NoError(t, n.Publish(ctx, "c1"))
}

func TestMemoryNotifierSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	n := NewMemoryNotifier()
	ctx := context.Background()

	_, cancel, err := n.Subscribe(ctx, "c1")
	require.NoError(t, err)
	defer cancel()

	// Nobody drains; publishes must still return promptly.
	for i := 0; i < 100; i++ {
		require.NoError(t, n.Publish(ctx, "c1"))
	}
}

func TestMemoryNotifierMultipleSubscribers(t *testing.T) {
	n := NewMemoryNotifier()
	ctx := context.Background()

	first, cancelFirst, err := n.Subscribe(ctx, "c1")
	require.NoError(t, err)
	defer cancelFirst()

	second, cancelSecond, err := n.Subscribe(ctx, "c1")
	require.NoError(t, err)
	defer cancelSecond()

	require.NoError(t, n.Publish(ctx, "c1"))

	for _, events := range []<-chan string{first, second} {
		select {
		case got := <-events:
			require.Equal(t, "c1", got)
		case <-time.After(time.Second):
			t.Fatal("subscriber missed the event")
		}
	}
}
