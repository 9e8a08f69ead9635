// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type item struct {
	value     interface{}
	expiresAt time.Time
}

// InMemoryCache is a TTL map with a background sweeper.
type InMemoryCache struct {
	mu          sync.RWMutex
	items       map[string]item
	ttl         time.Duration
	cleanupFreq time.Duration

	stop    chan struct{}
	stopped chan struct{}
	started atomic.Bool
	once    sync.Once
}

func NewInMemoryCache(ttl, cleanupFreq time.Duration) *InMemoryCache {
	if cleanupFreq <= 0 {
		cleanupFreq = time.Minute
	}
	return &InMemoryCache{
		items:       make(map[string]item),
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

var _ Store = (*InMemoryCache)(nil)

func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item{value: value, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[key]
	if !ok || (c.ttl > 0 && time.Now().After(it.expiresAt)) {
		return nil, false, nil
	}
	return it.value, true, nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// Close stops the sweeper.
func (c *InMemoryCache) Close() error {
	c.StopCleanup()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *InMemoryCache) deleteExpired() {
	if c.ttl <= 0 {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, key)
		}
	}
}

// StartCleanup runs the sweeper until ctx is done or StopCleanup is called.
func (c *InMemoryCache) StartCleanup(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(c.stopped)
		ticker := time.NewTicker(c.cleanupFreq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.deleteExpired()
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			}
		}
	}()
}

// StopCleanup stops the sweeper and waits for it to exit.
func (c *InMemoryCache) StopCleanup() {
	c.once.Do(func() {
		close(c.stop)
		if c.started.Load() {
			<-c.stopped
		}
	})
}
