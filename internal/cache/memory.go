package cache

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calebmoss/tierkv/internal/config"
	"github.com/calebmoss/tierkv/internal/types"
)

// MemoryCache is the bounded in-process backend. Entries are evicted
// least-recently-used first whenever the item count or byte budget would be
// exceeded. All operations on an instance run under one mutex, so callers
// observe a linear history and the budget invariants hold after every call:
// currentBytes == sum of resident entry sizes, len(entries) <= maxItems and
// currentBytes <= maxBytes.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	order      *list.List // front = least recently used, back = most recent
	maxItems   int
	maxBytes   int64
	curBytes   int64
	defaultTTL time.Duration
	logger     *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64

	closed atomic.Bool
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	size      int64
	elem      *list.Element
}

// NewMemoryCache creates a new bounded memory cache.
func NewMemoryCache(cfg config.MemoryConfig, logger *slog.Logger) *MemoryCache {
	if logger == nil {
		logger = slog.Default()
	}

	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = 1000
	}
	maxMB := cfg.MaxMemoryMB
	if maxMB <= 0 {
		maxMB = 50
	}
	defaultTTL := cfg.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	c := &MemoryCache{
		entries:    make(map[string]*memoryEntry),
		order:      list.New(),
		maxItems:   maxItems,
		maxBytes:   int64(maxMB) * 1024 * 1024,
		defaultTTL: defaultTTL,
		logger:     logger.With("component", "memory-cache"),
	}

	c.logger.Info("Memory cache initialized", "max_items", maxItems, "max_memory_mb", maxMB)
	return c
}

// Name returns the backend name.
func (c *MemoryCache) Name() string {
	return "memory"
}

// IsAvailable returns true if the cache is not closed.
func (c *MemoryCache) IsAvailable() bool {
	return !c.closed.Load()
}

// Get retrieves a value. Expired entries are purged on access and reported
// as a miss; live entries become the most recently used.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	if time.Now().After(e.expiresAt) {
		c.removeLocked(e)
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	c.order.MoveToBack(e.elem)
	c.hits.Add(1)
	return e.value, nil
}

// Set stores a value with expiry now+ttl, evicting LRU entries as needed.
// A value larger than the whole byte budget is rejected outright without
// mutating any state.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	size := entrySize(key, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.maxBytes {
		c.logger.Warn("Value too large for memory cache", "key", key, "size", size, "max_bytes", c.maxBytes)
		return types.NewCacheError("Set", key, "memory", types.ErrValueTooLarge)
	}

	if prev, ok := c.entries[key]; ok {
		c.removeLocked(prev)
	}

	for len(c.entries) >= c.maxItems || c.curBytes+size > c.maxBytes {
		front := c.order.Front()
		if front == nil {
			break
		}
		evicted := front.Value.(*memoryEntry)
		c.removeLocked(evicted)
		c.evictions.Add(1)
		c.logger.Debug("Evicted LRU entry", "key", evicted.key)
	}

	e := &memoryEntry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
		size:      size,
	}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e
	c.curBytes += size

	c.sets.Add(1)
	return nil
}

// Delete removes an entry if present. Absence is not an error.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.removeLocked(e)
		c.deletes.Add(1)
	}
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*memoryEntry)
	c.order.Init()
	c.curBytes = 0
	return nil
}

// Exists reports whether the key is present and unexpired, without touching
// the access order.
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		c.removeLocked(e)
		return false, nil
	}
	return true, nil
}

// Close marks the cache unavailable and drops all entries.
func (c *MemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*memoryEntry)
	c.order.Init()
	c.curBytes = 0
	return nil
}

// removeLocked unlinks an entry from the map, the access order, and the
// byte budget. The mutex must be held.
func (c *MemoryCache) removeLocked(e *memoryEntry) {
	delete(c.entries, e.key)
	c.order.Remove(e.elem)
	c.curBytes -= e.size
	if c.curBytes < 0 {
		c.curBytes = 0
	}
}

// Stats returns memory cache statistics.
func (c *MemoryCache) Stats() types.MemoryStats {
	c.mu.Lock()
	entryCount := len(c.entries)
	curBytes := c.curBytes
	c.mu.Unlock()

	return types.MemoryStats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Sets:         c.sets.Load(),
		Deletes:      c.deletes.Load(),
		Evictions:    c.evictions.Load(),
		EntryCount:   entryCount,
		CurrentBytes: curBytes,
		MaxBytes:     c.maxBytes,
		MaxItems:     c.maxItems,
	}
}

// EntryCount returns the number of resident entries.
func (c *MemoryCache) EntryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SizeBytes returns the current byte footprint of resident entries.
func (c *MemoryCache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

// entrySize estimates the byte footprint of a stored entry. The payload
// dominates; the key is included since it is retained alongside the value.
func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}

var _ types.Backend = (*MemoryCache)(nil)
var _ types.ExistenceChecker = (*MemoryCache)(nil)
