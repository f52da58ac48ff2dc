package cache

import (
	"context"
	"strings"
	"time"

	"github.com/calebmoss/tierkv/internal/types"
)

const tenantKeyPrefix = "tenant:"

// TenantCache is a keyspace-scoped view over a Service. Every key is
// rewritten to "tenant:<id>:<key>" before it reaches the backends, so
// tenants sharing one service cannot read or overwrite each other's
// entries. It deliberately carries no Clear: a tenant must not be able to
// wipe the shared store.
type TenantCache struct {
	svc      *Service
	tenantID string
	prefix   string
}

// Tenant returns a view of the service scoped to one tenant's keyspace.
// Views are cheap; callers may create one per request.
func (s *Service) Tenant(tenantID string) types.TenantView {
	return NewTenantCache(s, tenantID)
}

// NewTenantCache creates a tenant-scoped view for the given tenant ID.
func NewTenantCache(svc *Service, tenantID string) *TenantCache {
	return &TenantCache{
		svc:      svc,
		tenantID: tenantID,
		prefix:   tenantKeyPrefix + tenantID + ":",
	}
}

// TenantID returns the tenant this view is scoped to.
func (t *TenantCache) TenantID() string {
	return t.tenantID
}

func (t *TenantCache) scope(key string) string {
	return t.prefix + key
}

// Get retrieves a value from the tenant's keyspace.
func (t *TenantCache) Get(ctx context.Context, key string, dest any) error {
	return t.svc.Get(ctx, t.scope(key), dest)
}

// Set stores a value in the tenant's keyspace.
func (t *TenantCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return t.svc.Set(ctx, t.scope(key), value, ttl)
}

// Delete removes a key from the tenant's keyspace.
func (t *TenantCache) Delete(ctx context.Context, key string) error {
	return t.svc.Delete(ctx, t.scope(key))
}

// Contains reports whether a live entry exists in the tenant's keyspace.
func (t *TenantCache) Contains(ctx context.Context, key string) (bool, error) {
	return t.svc.Contains(ctx, t.scope(key))
}

// GetMany retrieves multiple raw payloads. Result keys are returned
// unscoped, exactly as the caller passed them.
func (t *TenantCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	scoped := make([]string, len(keys))
	for i, key := range keys {
		scoped[i] = t.scope(key)
	}

	results, err := t.svc.GetMany(ctx, scoped)
	if err != nil {
		return nil, err
	}

	unscoped := make(map[string][]byte, len(results))
	for key, value := range results {
		unscoped[strings.TrimPrefix(key, t.prefix)] = value
	}
	return unscoped, nil
}

// SetMany stores multiple values in the tenant's keyspace with one TTL.
func (t *TenantCache) SetMany(ctx context.Context, items map[string]any, ttl time.Duration) error {
	scoped := make(map[string]any, len(items))
	for key, value := range items {
		scoped[t.scope(key)] = value
	}
	return t.svc.SetMany(ctx, scoped, ttl)
}

// Increment atomically adds delta to a counter in the tenant's keyspace.
func (t *TenantCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	return t.svc.Increment(ctx, t.scope(key), delta, ttl)
}

// Expire sets the TTL of an existing key in the tenant's keyspace.
func (t *TenantCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return t.svc.Expire(ctx, t.scope(key), ttl)
}

// GetOrCompute returns the cached value, computing and storing it on a miss.
func (t *TenantCache) GetOrCompute(ctx context.Context, key string, dest any, ttl time.Duration, compute func() (any, error)) error {
	return t.svc.GetOrCompute(ctx, t.scope(key), dest, ttl, compute)
}

// GetWithRefresh returns the cached value, scheduling a background refresh
// when the remaining TTL falls below the threshold fraction.
func (t *TenantCache) GetWithRefresh(ctx context.Context, key string, dest any, ttl time.Duration, threshold float64, compute func() (any, error)) error {
	return t.svc.GetWithRefresh(ctx, t.scope(key), dest, ttl, threshold, compute)
}

var _ types.TenantView = (*TenantCache)(nil)
