package types

import (
	"context"
	"time"
)

// Backend is the contract every cache backend implements. Get returns
// ErrCacheMiss for a missing or expired key; only true I/O failures are
// reported as other errors.
type Backend interface {
	Name() string
	IsAvailable() bool
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// BatchBackend is implemented by backends that can issue batch operations
// as a single round trip. Results must be semantically identical to the
// equivalent sequential single-key operations.
type BatchBackend interface {
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error
}

// ExistenceChecker is implemented by backends with a cheap existence probe.
type ExistenceChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// TTLBackend is implemented by backends that expose TTL introspection and
// adjustment for stored keys.
type TTLBackend interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// CounterBackend is implemented by backends with atomic counters.
type CounterBackend interface {
	Increment(ctx context.Context, key string, delta int64) (int64, error)
}

// RankingBackend is implemented by backends with ordered-set primitives.
type RankingBackend interface {
	ZAdd(ctx context.Context, key string, members map[string]float64, ttl time.Duration) error
	ZRange(ctx context.Context, key string, start, stop int64, desc bool) ([]string, error)
}

// Serializer encodes cache values to the byte payload stored by backends.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// MetricsRecorder receives per-operation observability events from the
// facade. Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	RecordHit(layer string, key string, latency time.Duration)
	RecordMiss(layer string, key string, latency time.Duration)
	RecordSet(layer string, key string, size int, latency time.Duration)
	RecordDelete(layer string, key string, latency time.Duration)
	RecordError(layer string, operation string, err error)
	RecordCircuitStateChange(from, to string)
}

// Logger is the minimal structured logging contract callers may plug in.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
