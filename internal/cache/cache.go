package cache

import (
	"context"
	"time"
)

// Cache is a small shared cache for hot records and stats reports.
type Cache interface {
	// Get unmarshals the cached value under key into v. The bool reports
	// whether the key was present.
	Get(ctx context.Context, key string, v any) (bool, error)
	// Set stores v under key for the given TTL.
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	// Delete removes a key.
	Delete(ctx context.Context, key string) error
}

var _ Cache = (*Nop)(nil)

// Nop is a cache that caches nothing, used in tests and when no redis
// address is configured.
type Nop struct {
}

func NewNop() Nop {
	return Nop{}
}

func (n Nop) Get(ctx context.Context, key string, v any) (bool, error) {
	return false, nil
}

func (n Nop) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	return nil
}

func (n Nop) Delete(ctx context.Context, key string) error {
	return nil
}
