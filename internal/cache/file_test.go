package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/calebmoss/tierkv/internal/types"
)

func newTestFileCache(t *testing.T) *FileCache {
	t.Helper()
	cache, err := NewFileCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestFileCacheName(t *testing.T) {
	cache := newTestFileCache(t)

	if name := cache.Name(); name != "file" {
		t.Errorf("Name() = %s, want file", name)
	}
}

func TestFileCacheSetGet(t *testing.T) {
	ctx := context.Background()
	cache := newTestFileCache(t)

	t.Run("round trip", func(t *testing.T) {
		if err := cache.Set(ctx, "key1", []byte(`{"a":1}`), time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := cache.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != `{"a":1}` {
			t.Errorf("Get() = %s, want {\"a\":1}", got)
		}
	})

	t.Run("missing key returns cache miss", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing")
		if !errors.Is(err, types.ErrCacheMiss) {
			t.Errorf("Get() error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("overwrite replaces value", func(t *testing.T) {
		if err := cache.Set(ctx, "key2", []byte("first"), time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := cache.Set(ctx, "key2", []byte("second"), time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := cache.Get(ctx, "key2")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "second" {
			t.Errorf("Get() = %s, want second", got)
		}
	})
}

func TestFileCacheKeySanitization(t *testing.T) {
	ctx := context.Background()
	cache := newTestFileCache(t)

	t.Run("special characters are stripped", func(t *testing.T) {
		if err := cache.Set(ctx, "user:42/profile", []byte("v1"), time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := cache.Get(ctx, "user:42/profile")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "v1" {
			t.Errorf("Get() = %s, want v1", got)
		}

		// The sanitized file carries only the kept characters
		if _, err := os.Stat(filepath.Join(cache.dir, "user42profile.cache")); err != nil {
			t.Errorf("expected sanitized cache file: %v", err)
		}
	})

	t.Run("keys reducing to nothing share the default file", func(t *testing.T) {
		if err := cache.Set(ctx, "///", []byte("first"), time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := cache.Set(ctx, ":::", []byte("second"), time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := cache.Get(ctx, "///")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "second" {
			t.Errorf("Get() = %s, want second (shared default file)", got)
		}
	})
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := newTestFileCache(t)

	if err := cache.Set(ctx, "ephemeral", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	if _, err := cache.Get(ctx, "ephemeral"); !errors.Is(err, types.ErrCacheMiss) {
		t.Fatalf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}

	// Expired file is deleted on read
	if _, err := os.Stat(filepath.Join(cache.dir, "ephemeral.cache")); !os.IsNotExist(err) {
		t.Errorf("expected expired file to be removed, stat error = %v", err)
	}
}

func TestFileCacheOnDiskFormat(t *testing.T) {
	ctx := context.Background()
	cache := newTestFileCache(t)

	if err := cache.Set(ctx, "key1", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cache.dir, "key1.cache"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	// Each file is a JSON-encoded types.Entry
	var entry types.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if entry.Key != "key1" {
		t.Errorf("entry.Key = %s, want key1", entry.Key)
	}
	if string(entry.Value) != "payload" {
		t.Errorf("entry.Value = %s, want payload", entry.Value)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("entry.CreatedAt is zero")
	}
	if entry.IsExpired(time.Now()) {
		t.Error("freshly written entry reports expired")
	}
}

func TestFileCacheCorruptFile(t *testing.T) {
	ctx := context.Background()
	cache := newTestFileCache(t)

	path := filepath.Join(cache.dir, "broken.cache")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := cache.Get(ctx, "broken"); !errors.Is(err, types.ErrCacheMiss) {
		t.Fatalf("Get() of corrupt file error = %v, want ErrCacheMiss", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected corrupt file to be removed, stat error = %v", err)
	}
}

func TestFileCacheDelete(t *testing.T) {
	ctx := context.Background()
	cache := newTestFileCache(t)

	if err := cache.Set(ctx, "key", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := cache.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := cache.Get(ctx, "key"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want ErrCacheMiss", err)
	}

	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() of absent key error = %v", err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	cache := newTestFileCache(t)

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Set(ctx, key, []byte("v"), time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	// Unrelated files in the directory survive a clear
	other := filepath.Join(cache.dir, "keep.txt")
	if err := os.WriteFile(other, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if _, err := cache.Get(ctx, key); !errors.Is(err, types.ErrCacheMiss) {
			t.Errorf("Get(%s) after clear error = %v, want ErrCacheMiss", key, err)
		}
	}

	if _, err := os.Stat(other); err != nil {
		t.Errorf("unrelated file removed by Clear: %v", err)
	}
}

func TestFileCacheExists(t *testing.T) {
	ctx := context.Background()
	cache := newTestFileCache(t)

	if err := cache.Set(ctx, "present", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	exists, err := cache.Exists(ctx, "present")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists(present) = false, want true")
	}

	exists, err = cache.Exists(ctx, "absent")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists(absent) = true, want false")
	}
}

func TestFileCacheClosed(t *testing.T) {
	ctx := context.Background()
	cache, err := NewFileCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := cache.Set(ctx, "key", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if cache.IsAvailable() {
		t.Error("IsAvailable() = true after Close")
	}

	if _, err := cache.Get(ctx, "key"); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Get() after close error = %v, want ErrClosed", err)
	}

	// Close leaves files on disk for the next process
	if _, err := os.Stat(filepath.Join(cache.dir, "key.cache")); err != nil {
		t.Errorf("expected cache file to survive Close: %v", err)
	}
}
