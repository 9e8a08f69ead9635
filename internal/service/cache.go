// internal/service/cache.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/cache"
	"github.com/dangerclosesec/orgtodo/internal/domain"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CacheService provides caching functionality with type safety and error handling
type CacheService struct {
	cache cache.Store
	group singleflight.Group
}

// CacheConfig holds configuration for the cache service
type CacheConfig struct {
	TTL         time.Duration
	CleanupFreq time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(config CacheConfig) *CacheService {
	c := cache.NewInMemoryCache(config.TTL, config.CleanupFreq)
	c.StartCleanup(context.Background())

	return &CacheService{
		cache: c,
	}
}

// NewRedisCacheService creates a cache service shared by every instance
// connected to the same Redis.
func NewRedisCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	return &CacheService{
		cache: cache.NewRedisCache(client, ttl),
	}
}

// Set stores a value in the cache
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	return s.cache.Set(ctx, key, value)
}

// Get retrieves a value from the cache into result
func (s *CacheService) Get(ctx context.Context, key string, result interface{}) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	value, found, err := s.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotFound
	}

	switch v := value.(type) {
	case []byte:
		if err := json.Unmarshal(v, result); err != nil {
			return fmt.Errorf("unmarshaling cached value: %w", err)
		}
	default:
		if err := assignValue(value, result); err != nil {
			return fmt.Errorf("assigning cached value: %w", err)
		}
	}

	return nil
}

// GetOrSet retrieves a value from cache or fetches and stores it. Concurrent
// misses for the same key share one fetch.
func (s *CacheService) GetOrSet(ctx context.Context, key string, result interface{}, fetchFunc func() (interface{}, error)) error {
	err := s.Get(ctx, key, result)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("getting from cache: %w", err)
	}

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		value, err := fetchFunc()
		if err != nil {
			return nil, err
		}
		if err := s.Set(ctx, key, value); err != nil {
			return nil, fmt.Errorf("storing in cache: %w", err)
		}
		return value, nil
	})
	if err != nil {
		return err
	}

	if err := assignValue(value, result); err != nil {
		return fmt.Errorf("assigning fetched value: %w", err)
	}

	return nil
}

// Delete removes a value from the cache
func (s *CacheService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	return s.cache.Delete(ctx, key)
}

// Close stops the cleanup routine
func (s *CacheService) Close() {
	_ = s.cache.Close()
}

// assignValue handles type conversion for different types
func assignValue(src interface{}, dst interface{}) error {
	if v, ok := dst.(*interface{}); ok {
		*v = src
		return nil
	}

	// Convert to JSON and back for complex types
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshaling value: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshaling value: %w", err)
	}

	return nil
}
