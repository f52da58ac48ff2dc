// Package types provides shared types for the tierkv cache library.
// This package breaks import cycles between pkg/tierkv and internal/cache.
package types

import "time"

// Entry is a stored cache value with its absolute expiry. An entry is
// observable iff now < ExpiresAt; once expired it is logically absent even
// if still physically present until swept.
type Entry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (e *Entry) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return now.After(e.ExpiresAt)
}

// MemoryStats describes the in-memory backend at a point in time.
type MemoryStats struct {
	Hits         int64
	Misses       int64
	Sets         int64
	Deletes      int64
	Evictions    int64
	EntryCount   int
	CurrentBytes int64
	MaxBytes     int64
	MaxItems     int
}

// RemoteStats are the distributed backend's monotonically increasing
// operation counters. They reset only via an explicit ResetMetrics call and
// are used for observability, never for correctness.
type RemoteStats struct {
	Hits           int64
	Misses         int64
	Sets           int64
	Deletes        int64
	Errors         int64
	TotalLatency   time.Duration
	OperationCount int64
}

// HitRate returns the fraction of reads served from the backend.
func (s RemoteStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// AvgLatency returns the mean per-operation latency.
func (s RemoteStats) AvgLatency() time.Duration {
	if s.OperationCount == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.OperationCount)
}

// Snapshot is the facade's observability view returned by Stats().
type Snapshot struct {
	Timestamp         time.Time
	PrimaryBackend    string
	PrimaryAvailable  bool
	FallbackBackend   string
	FallbackAvailable bool
	CircuitState      string
	CircuitFailures   int
	Memory            *MemoryStats
	Remote            *RemoteStats
}
