package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calebmoss/tierkv/internal/types"
)

const fileCacheExt = ".cache"

// FileCache is the durable local backend: one file per sanitized key under
// a cache directory, each holding a JSON-encoded types.Entry. All I/O on an
// instance is serialized through one mutex so concurrent writers cannot
// corrupt a file.
type FileCache struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger

	closed atomic.Bool
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string, logger *slog.Logger) (*FileCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = ".cache"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewCacheError("New", "", "file", err)
	}

	c := &FileCache{
		dir:    dir,
		logger: logger.With("component", "file-cache"),
	}

	c.logger.Info("File cache initialized", "dir", dir)
	return c, nil
}

// Name returns the backend name.
func (c *FileCache) Name() string {
	return "file"
}

// IsAvailable returns true if the cache is not closed.
func (c *FileCache) IsAvailable() bool {
	return !c.closed.Load()
}

// path maps a key to a filesystem-safe file under the cache directory.
// Keys reduce to their alphanumeric/dash/underscore characters; keys with
// none left share a fixed default name, accepting the collision risk.
func (c *FileCache) path(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	safe := b.String()
	if safe == "" {
		safe = "default"
	}
	return filepath.Join(c.dir, safe+fileCacheExt)
}

// Get reads the entry file, returning a miss for absent or expired keys.
// Expired files are deleted on read.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	path := c.path(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrCacheMiss
		}
		return nil, types.NewCacheError("Get", key, "file", err)
	}

	var entry types.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry: drop it and report a miss rather than failing reads forever.
		_ = os.Remove(path)
		c.logger.Warn("Removed corrupt cache file", "key", key, "path", path, "error", err)
		return nil, types.ErrCacheMiss
	}

	if entry.IsExpired(time.Now()) {
		_ = os.Remove(path)
		return nil, types.ErrCacheMiss
	}

	return entry.Value, nil
}

// Set overwrites the entry file unconditionally.
func (c *FileCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	now := time.Now()
	entry := types.Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		return types.NewCacheError("Set", key, "file", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.WriteFile(c.path(key), data, 0o600); err != nil {
		return types.NewCacheError("Set", key, "file", err)
	}
	return nil
}

// Delete removes the entry file if present. Absence is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return types.NewCacheError("Delete", key, "file", err)
	}
	return nil
}

// Clear removes every cache file in the directory.
func (c *FileCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := os.ReadDir(c.dir)
	if err != nil {
		return types.NewCacheError("Clear", "", "file", err)
	}

	var removed int
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileCacheExt) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, f.Name())); err != nil {
			return types.NewCacheError("Clear", "", "file", err)
		}
		removed++
	}

	c.logger.Debug("Cleared file cache", "removed", removed)
	return nil
}

// Exists reports whether a live entry file is present for the key.
func (c *FileCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if err != nil {
		if types.IsCacheMiss(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close marks the cache unavailable. Files are left in place; they remain
// valid for the next process.
func (c *FileCache) Close() error {
	c.closed.Store(true)
	return nil
}

var _ types.Backend = (*FileCache)(nil)
var _ types.ExistenceChecker = (*FileCache)(nil)
