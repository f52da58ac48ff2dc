// Package tierkv provides a resilient key-value caching service with
// interchangeable backends.
//
// tierkv offers one API over three backends: a bounded in-memory LRU cache,
// a file-per-key local cache, and a Redis-backed distributed cache. A
// circuit breaker isolates a failing primary backend and routes traffic to
// the in-memory fallback, so backend outages degrade to cache misses
// instead of errors.
//
// # Quick Start
//
// Create a cache service with default configuration (file-backed):
//
//	c, err := tierkv.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
// Point it at Redis to get the distributed backend with in-memory fallback:
//
//	cfg := tierkv.Config()
//	cfg.BackendURL = "redis://localhost:6379/0"
//	c, err := tierkv.NewFromConfig(cfg)
//
// # Cache Operations
//
// Basic set and get operations:
//
//	ctx := context.Background()
//	user := User{ID: "123", Name: "Alice"}
//
//	err := c.Set(ctx, "user:123", user, 5*time.Minute)
//
//	var cached User
//	err = c.Get(ctx, "user:123", &cached)
//
// Cache-aside pattern with GetOrCompute:
//
//	var result User
//	err := c.GetOrCompute(ctx, "user:456", &result, time.Minute, func() (any, error) {
//	    // This function only runs on cache miss
//	    return fetchUserFromDB("456")
//	})
//
// Stale-while-revalidate with GetWithRefresh: the cached value is returned
// immediately and recomputed in the background once its remaining TTL drops
// below the threshold fraction:
//
//	err := c.GetWithRefresh(ctx, "report:q3", &report, time.Hour, 0.8, buildReport)
//
// # Multi-Tenancy
//
// Tenant views prefix every key with the tenant's keyspace so tenants
// sharing one service cannot touch each other's entries:
//
//	tc := c.Tenant("acme")
//	err := tc.Set(ctx, "profile", profile, time.Minute)
//
// # Shared Instance
//
// Shared returns a lazily constructed process-wide service configured from
// the environment. ResetShared discards it, which tests use for isolation:
//
//	c, err := tierkv.Shared()
//
// # Configuration
//
// Load configuration from a JSON file with environment overrides:
//
//	c, err := tierkv.NewFromFile("config.json")
//
// For testing, use the test configuration:
//
//	cfg := tierkv.TestConfig()
//
// # Thread Safety
//
// All cache operations are thread-safe and can be used concurrently from
// multiple goroutines.
package tierkv
