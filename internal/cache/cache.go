// Package cache holds the key/value stores behind the service cache.
package cache

import "context"

// Store is a TTL key/value store. A miss is reported as found == false with
// a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value interface{}, found bool, err error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	Close() error
}
