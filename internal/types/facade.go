package types

import (
	"context"
	"time"
)

// Cache is the public surface of the resilient cache service.
//
// Get reports ErrCacheMiss for absent or expired keys. Backend failures
// never surface as errors from read paths: a total outage degrades to a
// miss (or an empty batch result), with the primary's failures counted
// against the circuit breaker.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Contains(ctx context.Context, key string) (bool, error)
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMany(ctx context.Context, items map[string]any, ttl time.Duration) error
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	GetOrCompute(ctx context.Context, key string, dest any, ttl time.Duration, compute func() (any, error)) error
	GetWithRefresh(ctx context.Context, key string, dest any, ttl time.Duration, threshold float64, compute func() (any, error)) error
	Tenant(tenantID string) TenantView
	Stats() Snapshot
	IsPrimaryAvailable() bool
	Close() error
	CloseWithTimeout(timeout time.Duration) error
}

// TenantView is the keyed subset of Cache scoped to one tenant's keyspace.
// It deliberately has no Clear: a tenant must not wipe the shared store.
type TenantView interface {
	TenantID() string
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMany(ctx context.Context, items map[string]any, ttl time.Duration) error
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	GetOrCompute(ctx context.Context, key string, dest any, ttl time.Duration, compute func() (any, error)) error
	GetWithRefresh(ctx context.Context, key string, dest any, ttl time.Duration, threshold float64, compute func() (any, error)) error
}
