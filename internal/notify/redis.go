package notify

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// RedisChannel is the pub/sub channel; the message payload is the topic.
const RedisChannel = "orgtodo:events"

// RedisBroker relays notifications between instances through Redis pub/sub.
type RedisBroker struct {
	client *redis.Client
	pubsub *redis.PubSub
	local  *MemoryBroker
	done   chan struct{}
}

var _ Broker = (*RedisBroker)(nil)

func NewRedisBroker(ctx context.Context, client *redis.Client) (*RedisBroker, error) {
	pubsub := client.Subscribe(ctx, RedisChannel)
	// Wait for the subscription confirmation so early publishes are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", RedisChannel, err)
	}

	b := &RedisBroker{
		client: client,
		pubsub: pubsub,
		local:  NewMemoryBroker(),
		done:   make(chan struct{}),
	}
	go b.run()
	return b, nil
}

func (b *RedisBroker) run() {
	defer close(b.done)
	for msg := range b.pubsub.Channel() {
		b.local.dispatch(msg.Payload)
	}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string) error {
	if err := b.client.Publish(ctx, RedisChannel, topic).Err(); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	return b.local.Subscribe(ctx, topic)
}

func (b *RedisBroker) Close() error {
	err := b.pubsub.Close()
	<-b.done
	if lerr := b.local.Close(); err == nil {
		err = lerr
	}
	return err
}
