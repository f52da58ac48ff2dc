// Package metrics provides cache operation metrics collection and publishing.
package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calebmoss/tierkv/internal/types"
)

const (
	defaultLatencyBufferSize = 10000
)

// Snapshot is a point-in-time view of accumulated operation metrics.
type Snapshot struct {
	Timestamp time.Time

	PrimaryHits    int64
	PrimaryMisses  int64
	FallbackHits   int64
	FallbackMisses int64

	GetCount    int64
	SetCount    int64
	DeleteCount int64
	ErrorCount  int64

	TotalBytesWritten   int64
	CircuitStateChanges int64

	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64
}

// HitRatio returns the overall hit ratio across both layers, 0 when no
// reads have been recorded.
func (s Snapshot) HitRatio() float64 {
	hits := s.PrimaryHits + s.FallbackHits
	total := hits + s.PrimaryMisses + s.FallbackMisses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Tracker accumulates operation counters and a bounded latency sample.
// Counters are atomics; only the latency ring buffer takes a lock.
type Tracker struct {
	primaryHits    atomic.Int64
	primaryMisses  atomic.Int64
	fallbackHits   atomic.Int64
	fallbackMisses atomic.Int64

	getCount    atomic.Int64
	setCount    atomic.Int64
	deleteCount atomic.Int64

	errorCount atomic.Int64

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int

	totalBytesWritten atomic.Int64

	cbStateChanges atomic.Int64
}

// NewTracker creates a tracker with the default latency buffer size.
func NewTracker() *Tracker {
	return &Tracker{
		latencyBuffer: make([]time.Duration, defaultLatencyBufferSize),
	}
}

// RecordHit records a cache hit served by the given layer.
func (t *Tracker) RecordHit(layer string, key string, latency time.Duration) {
	switch layer {
	case "primary":
		t.primaryHits.Add(1)
	case "fallback":
		t.fallbackHits.Add(1)
	}
	t.getCount.Add(1)
	t.recordLatency(latency)
}

// RecordMiss records a cache miss on the given layer.
func (t *Tracker) RecordMiss(layer string, key string, latency time.Duration) {
	switch layer {
	case "primary":
		t.primaryMisses.Add(1)
	case "fallback":
		t.fallbackMisses.Add(1)
	}
	t.getCount.Add(1)
	t.recordLatency(latency)
}

// RecordSet records a write and its payload size.
func (t *Tracker) RecordSet(layer string, key string, size int, latency time.Duration) {
	t.setCount.Add(1)
	t.totalBytesWritten.Add(int64(size))
	t.recordLatency(latency)
}

// RecordDelete records a delete operation.
func (t *Tracker) RecordDelete(layer string, key string, latency time.Duration) {
	t.deleteCount.Add(1)
	t.recordLatency(latency)
}

// RecordError records a backend error.
func (t *Tracker) RecordError(layer string, operation string, err error) {
	t.errorCount.Add(1)
}

// RecordCircuitStateChange records a circuit breaker transition.
func (t *Tracker) RecordCircuitStateChange(from, to string) {
	t.cbStateChanges.Add(1)
}

// recordLatency adds a latency measurement using a circular buffer.
// This is O(1) time complexity with no memory allocations.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

// Snapshot returns the current metrics snapshot.
func (t *Tracker) Snapshot() Snapshot {
	// RLock allows concurrent snapshots
	t.latencyMu.RLock()
	count := t.latencyCount
	latencyCopy := make([]time.Duration, count)
	// Copy from circular buffer in insertion order
	if count > 0 {
		if count < len(t.latencyBuffer) {
			copy(latencyCopy, t.latencyBuffer[:count])
		} else {
			firstPart := len(t.latencyBuffer) - t.latencyIndex
			copy(latencyCopy[:firstPart], t.latencyBuffer[t.latencyIndex:])
			copy(latencyCopy[firstPart:], t.latencyBuffer[:t.latencyIndex])
		}
	}
	t.latencyMu.RUnlock()

	snapshot := Snapshot{
		Timestamp:           time.Now(),
		PrimaryHits:         t.primaryHits.Load(),
		PrimaryMisses:       t.primaryMisses.Load(),
		FallbackHits:        t.fallbackHits.Load(),
		FallbackMisses:      t.fallbackMisses.Load(),
		GetCount:            t.getCount.Load(),
		SetCount:            t.setCount.Load(),
		DeleteCount:         t.deleteCount.Load(),
		ErrorCount:          t.errorCount.Load(),
		TotalBytesWritten:   t.totalBytesWritten.Load(),
		CircuitStateChanges: t.cbStateChanges.Load(),
	}

	if len(latencyCopy) > 0 {
		snapshot.AvgLatencyMs = durationMs(avgDuration(latencyCopy))
		snapshot.P50LatencyMs = durationMs(percentile(latencyCopy, 50))
		snapshot.P95LatencyMs = durationMs(percentile(latencyCopy, 95))
		snapshot.P99LatencyMs = durationMs(percentile(latencyCopy, 99))
	}

	return snapshot
}

// Reset clears all counters and the latency sample.
func (t *Tracker) Reset() {
	t.primaryHits.Store(0)
	t.primaryMisses.Store(0)
	t.fallbackHits.Store(0)
	t.fallbackMisses.Store(0)
	t.getCount.Store(0)
	t.setCount.Store(0)
	t.deleteCount.Store(0)
	t.errorCount.Store(0)
	t.totalBytesWritten.Store(0)
	t.cbStateChanges.Store(0)

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func percentile(durations []time.Duration, p int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	slices.Sort(sorted)

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

var _ types.MetricsRecorder = (*Tracker)(nil)
