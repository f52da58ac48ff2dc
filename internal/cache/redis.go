package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calebmoss/tierkv/internal/config"
	"github.com/calebmoss/tierkv/internal/types"
)

const disconnectErrorThreshold = 5

// RedisCache is the distributed backend: a pooled go-redis client with
// short socket timeouts, transport-level retry on timeout, a periodic
// health-check worker, and pipelined batch operations. Every operation
// updates the backend's performance counters.
type RedisCache struct {
	client *redis.Client
	config config.RedisConfig
	logger *slog.Logger

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	healthCheckStopCh chan struct{}
	healthCheckWg     sync.WaitGroup
	closed            atomic.Bool

	hits         atomic.Int64
	misses       atomic.Int64
	sets         atomic.Int64
	deletes      atomic.Int64
	errCounter   atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
	opCount      atomic.Int64
}

// NewRedisCache connects to the backend URL (redis://[:password@]host:port/db)
// and applies the pool and timeout settings from cfg. A failed initial ping
// does not fail construction; the health-check worker restores the
// connected flag once the server is reachable.
func NewRedisCache(backendURL string, cfg config.RedisConfig, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := redis.ParseURL(backendURL)
	if err != nil {
		return nil, types.NewCacheError("New", "", "redis", err)
	}

	if !cfg.Password.IsEmpty() {
		opts.Password = cfg.Password.Value()
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.PoolTimeout = cfg.PoolTimeout
	opts.MaxRetries = cfg.MaxRetries

	client := redis.NewClient(opts)

	rc := &RedisCache{
		client:            client,
		config:            cfg,
		logger:            logger.With("component", "redis-cache"),
		healthCheckStopCh: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		rc.logger.Warn("Redis initial connection failed", "error", err)
		rc.setError(err)
		// Don't return error - allow graceful degradation
	} else {
		rc.connected.Store(true)
		rc.logger.Info("Redis connected", "address", opts.Addr)
	}

	if cfg.HealthCheckInterval > 0 {
		rc.healthCheckWg.Add(1)
		go rc.healthCheckWorker()
	}

	return rc, nil
}

func (c *RedisCache) Name() string {
	return "redis"
}

func (c *RedisCache) IsAvailable() bool {
	return c.connected.Load()
}

func (c *RedisCache) prefixKey(key string) string {
	return c.config.KeyPrefix + key
}

func (c *RedisCache) ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return c.config.DefaultTTL
}

// track accumulates latency for n operations against the perf counters.
func (c *RedisCache) track(start time.Time, n int64) {
	c.totalLatency.Add(int64(time.Since(start)))
	c.opCount.Add(n)
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.connected.Load() {
		return nil, types.ErrBackendUnavailable
	}

	defer c.track(time.Now(), 1)

	data, err := c.client.Get(ctx, c.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return nil, types.ErrCacheMiss
		}
		c.handleError(err)
		return nil, types.NewCacheError("Get", key, "redis", err)
	}

	c.hits.Add(1)
	c.clearError()

	return data, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.connected.Load() {
		return types.ErrBackendUnavailable
	}

	defer c.track(time.Now(), 1)

	if err := c.client.Set(ctx, c.prefixKey(key), value, c.ttlOrDefault(ttl)).Err(); err != nil {
		c.handleError(err)
		return types.NewCacheError("Set", key, "redis", err)
	}

	c.sets.Add(1)
	c.clearError()

	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if !c.connected.Load() {
		return types.ErrBackendUnavailable
	}

	defer c.track(time.Now(), 1)

	if err := c.client.Del(ctx, c.prefixKey(key)).Err(); err != nil {
		c.handleError(err)
		return types.NewCacheError("Delete", key, "redis", err)
	}

	c.deletes.Add(1)
	c.clearError()

	return nil
}

// Clear removes every key under this cache's prefix, leaving unrelated keys
// in the database untouched.
func (c *RedisCache) Clear(ctx context.Context) error {
	if !c.connected.Load() {
		return types.ErrBackendUnavailable
	}

	pattern := c.prefixKey("*")
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err)
			return types.NewCacheError("Clear", "", "redis", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err)
				return types.NewCacheError("Clear", "", "redis", err)
			}
			deleted += int64(len(keys))
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Cleared keys", "pattern", pattern, "deleted", deleted)
	c.clearError()
	return nil
}

// GetMany fetches all keys in one round trip. The result contains the same
// hits a sequence of single-key Gets would produce; missing keys are simply
// absent from the map.
func (c *RedisCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if !c.connected.Load() {
		return nil, types.ErrBackendUnavailable
	}

	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	defer c.track(time.Now(), int64(len(keys)))

	prefixedKeys := make([]string, len(keys))
	for i, key := range keys {
		prefixedKeys[i] = c.prefixKey(key)
	}

	results, err := c.client.MGet(ctx, prefixedKeys...).Result()
	if err != nil {
		c.handleError(err)
		return nil, types.NewCacheError("GetMany", "", "redis", err)
	}

	resultMap := make(map[string][]byte, len(keys))
	for i, result := range results {
		if result == nil {
			c.misses.Add(1)
			continue
		}
		if str, ok := result.(string); ok {
			resultMap[keys[i]] = []byte(str)
			c.hits.Add(1)
		}
	}

	c.clearError()
	return resultMap, nil
}

// SetMany stores all items as one pipelined round trip.
func (c *RedisCache) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if !c.connected.Load() {
		return types.ErrBackendUnavailable
	}

	if len(items) == 0 {
		return nil
	}

	defer c.track(time.Now(), int64(len(items)))

	expiry := c.ttlOrDefault(ttl)
	pipe := c.client.Pipeline()
	for key, value := range items {
		pipe.Set(ctx, c.prefixKey(key), value, expiry)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.handleError(err)
		return types.NewCacheError("SetMany", "", "redis", err)
	}

	c.sets.Add(int64(len(items)))
	c.clearError()

	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.connected.Load() {
		return false, types.ErrBackendUnavailable
	}

	n, err := c.client.Exists(ctx, c.prefixKey(key)).Result()
	if err != nil {
		c.handleError(err)
		return false, types.NewCacheError("Exists", key, "redis", err)
	}

	c.clearError()
	return n > 0, nil
}

// Expire sets the TTL of an existing key. Returns false if the key does
// not exist.
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !c.connected.Load() {
		return false, types.ErrBackendUnavailable
	}

	ok, err := c.client.Expire(ctx, c.prefixKey(key), ttl).Result()
	if err != nil {
		c.handleError(err)
		return false, types.NewCacheError("Expire", key, "redis", err)
	}

	c.clearError()
	return ok, nil
}

// TTL returns the remaining time-to-live for a key. A negative duration
// means the key is absent or has no expiry.
func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	if !c.connected.Load() {
		return -1, types.ErrBackendUnavailable
	}

	d, err := c.client.TTL(ctx, c.prefixKey(key)).Result()
	if err != nil {
		c.handleError(err)
		return -1, types.NewCacheError("TTL", key, "redis", err)
	}

	c.clearError()
	return d, nil
}

// Increment atomically adds delta to the counter stored at key, creating it
// at zero if absent.
func (c *RedisCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if !c.connected.Load() {
		return 0, types.ErrBackendUnavailable
	}

	n, err := c.client.IncrBy(ctx, c.prefixKey(key), delta).Result()
	if err != nil {
		c.handleError(err)
		return 0, types.NewCacheError("Increment", key, "redis", err)
	}

	c.clearError()
	return n, nil
}

// ZAdd adds members to a sorted set, applying the TTL in the same pipeline
// when one is given.
func (c *RedisCache) ZAdd(ctx context.Context, key string, members map[string]float64, ttl time.Duration) error {
	if !c.connected.Load() {
		return types.ErrBackendUnavailable
	}

	zs := make([]redis.Z, 0, len(members))
	for member, score := range members {
		zs = append(zs, redis.Z{Score: score, Member: member})
	}

	prefixed := c.prefixKey(key)
	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, prefixed, zs...)
	if ttl > 0 {
		pipe.Expire(ctx, prefixed, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.handleError(err)
		return types.NewCacheError("ZAdd", key, "redis", err)
	}

	c.clearError()
	return nil
}

// ZRange returns sorted-set members between start and stop, highest scores
// first when desc is set.
func (c *RedisCache) ZRange(ctx context.Context, key string, start, stop int64, desc bool) ([]string, error) {
	if !c.connected.Load() {
		return nil, types.ErrBackendUnavailable
	}

	prefixed := c.prefixKey(key)
	var members []string
	var err error
	if desc {
		members, err = c.client.ZRevRange(ctx, prefixed, start, stop).Result()
	} else {
		members, err = c.client.ZRange(ctx, prefixed, start, stop).Result()
	}
	if err != nil {
		c.handleError(err)
		return nil, types.NewCacheError("ZRange", key, "redis", err)
	}

	c.clearError()
	return members, nil
}

func (c *RedisCache) healthCheckWorker() {
	defer c.healthCheckWg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.healthCheckStopCh:
			return
		case <-ticker.C:
			c.performHealthCheck()
		}
	}
}

func (c *RedisCache) performHealthCheck() {
	wasConnected := c.connected.Load()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.DialTimeout)
	defer cancel()

	err := c.client.Ping(ctx).Err()
	if err != nil {
		if wasConnected {
			c.logger.Warn("Redis health check failed", "error", err)
			c.setError(err)
		}
		return
	}

	if !wasConnected {
		c.connected.Store(true)
		c.errorCount.Store(0)
		c.logger.Info("Redis connection restored via health check")
	}
}

// Close stops the health-check worker and releases the client pool.
// Closing an already-closed cache is a no-op.
func (c *RedisCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.connected.Store(false)

	close(c.healthCheckStopCh)
	c.healthCheckWg.Wait()

	return c.client.Close()
}

// Stats returns the performance counters accumulated since creation or the
// last ResetMetrics call.
func (c *RedisCache) Stats() types.RemoteStats {
	return types.RemoteStats{
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		Sets:           c.sets.Load(),
		Deletes:        c.deletes.Load(),
		Errors:         c.errCounter.Load(),
		TotalLatency:   time.Duration(c.totalLatency.Load()),
		OperationCount: c.opCount.Load(),
	}
}

// ResetMetrics zeroes the performance counters. Counters only reset through
// this explicit call.
func (c *RedisCache) ResetMetrics() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
	c.deletes.Store(0)
	c.errCounter.Store(0)
	c.totalLatency.Store(0)
	c.opCount.Store(0)
}

func (c *RedisCache) handleError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = err
	c.lastErrorTime = time.Now()
	c.errCounter.Add(1)
	count := c.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if c.connected.CompareAndSwap(true, false) {
			c.logger.Warn("Redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (c *RedisCache) clearError() {
	if c.errorCount.Swap(0) > 0 {
		if c.connected.CompareAndSwap(false, true) {
			c.logger.Info("Redis connection restored")
		}
	}
}

func (c *RedisCache) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = err
	c.lastErrorTime = time.Now()
	c.connected.Store(false)
}

// LastError returns the most recent backend error and when it occurred.
func (c *RedisCache) LastError() (error, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError, c.lastErrorTime
}

// Ping checks connectivity directly, bypassing the connected flag.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var _ types.Backend = (*RedisCache)(nil)
var _ types.BatchBackend = (*RedisCache)(nil)
var _ types.ExistenceChecker = (*RedisCache)(nil)
var _ types.TTLBackend = (*RedisCache)(nil)
var _ types.CounterBackend = (*RedisCache)(nil)
var _ types.RankingBackend = (*RedisCache)(nil)
