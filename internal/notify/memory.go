package notify

import (
	"context"
	"sync"
)

type subscriber struct {
	ch chan struct{}
}

// MemoryBroker is an in-process Broker. It also serves as the local fan-out
// stage of the Postgres and Redis brokers.
type MemoryBroker struct {
	mu     sync.Mutex
	topics map[string]map[*subscriber]struct{}
	closed bool
}

var _ Broker = (*MemoryBroker)(nil)

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]map[*subscriber]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string) error {
	b.dispatch(topic)
	return nil
}

func (b *MemoryBroker) dispatch(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.topics[topic] {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (b *MemoryBroker) Subscribe(_ context.Context, topic string) (<-chan struct{}, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{ch: make(chan struct{}, 1)}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}, nil
	}

	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*subscriber]struct{})
	}
	b.topics[topic][sub] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.topics[topic][sub]; !ok {
				return
			}
			delete(b.topics[topic], sub)
			if len(b.topics[topic]) == 0 {
				delete(b.topics, topic)
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel, nil
}

// Subscribers returns the number of live subscriptions on topic.
func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Close ends every subscription by closing its channel.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subs := range b.topics {
		for sub := range subs {
			close(sub.ch)
		}
		delete(b.topics, topic)
	}
	return nil
}
