package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type (
	// RedisNotifier carries store-update events over redis pub/sub so that
	// subscribers outside this process (a UI frontend, a second device on
	// the same store) see conversation updates as well.
	RedisNotifier struct {
		rdb *redis.Client
	}
)

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{
		rdb: rdb,
	}
}

func channelFor(conversationName string) string {
	return fmt.Sprintf("convo: %s", conversationName)
}

func (n *RedisNotifier) Publish(ctx context.Context, conversationName string) error {
	return n.rdb.Publish(ctx, channelFor(conversationName), conversationName).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, conversationName string) (<-chan string, func(), error) {
	pubsub := n.rdb.Subscribe(ctx, channelFor(conversationName))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	ch := make(chan string, 8)
	go func() {
		defer close(ch)
		for msg := range pubsub.Channel() {
			select {
			case ch <- msg.Payload:
			default:
			}
		}
	}()

	cancel := func() {
		pubsub.Close()
	}
	return ch, cancel, nil
}
