package notify

import (
	"context"
	"sync"
)

type (
	// Notifier is the explicit publish/subscribe channel for store updates:
	// every message-log append publishes the affected conversation name, and
	// subscribers re-query the log for the latest snapshot on each event.
	Notifier interface {
		Publish(ctx context.Context, conversationName string) error
		// Subscribe returns an event channel and a cancel func that releases
		// the subscription and closes the channel.
		Subscribe(ctx context.Context, conversationName string) (<-chan string, func(), error)
	}

	// MemoryNotifier is the in-process implementation, used by tests and the
	// redis-less run mode. Slow subscribers miss events rather than block a
	// publisher; they catch up on the next one since events carry no payload
	// beyond the conversation name.
	MemoryNotifier struct {
		mu   sync.Mutex
		subs map[string][]chan string
	}
)

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{
		subs: make(map[string][]chan string),
	}
}

func (n *MemoryNotifier) Publish(_ context.Context, conversationName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[conversationName] {
		select {
		case ch <- conversationName:
		default:
		}
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(_ context.Context, conversationName string) (<-chan string, func(), error) {
	ch := make(chan string, 8)

	n.mu.Lock()
	n.subs[conversationName] = append(n.subs[conversationName], ch)
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		subs := n.subs[conversationName]
		for i, sub := range subs {
			if sub == ch {
				n.subs[conversationName] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}
