package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calebmoss/tierkv/internal/config"
	"github.com/calebmoss/tierkv/internal/resilience"
	"github.com/calebmoss/tierkv/internal/types"
)

var errBackendDown = errors.New("backend down")

// fakeBackend is a scriptable in-memory backend for facade tests. Setting
// failing makes every operation return errBackendDown.
type fakeBackend struct {
	name string

	mu       sync.Mutex
	data     map[string][]byte
	failing  bool
	getCalls int
	setCalls int
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{name: name, data: make(map[string][]byte)}
}

func (f *fakeBackend) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *fakeBackend) gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func (f *fakeBackend) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) IsAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.failing
}

func (f *fakeBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.failing {
		return nil, errBackendDown
	}
	v, ok := f.data[key]
	if !ok {
		return nil, types.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failing {
		return errBackendDown
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errBackendDown
	}
	delete(f.data, key)
	return nil
}

func (f *fakeBackend) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errBackendDown
	}
	f.data = make(map[string][]byte)
	return nil
}

func (f *fakeBackend) Close() error { return nil }

// fakeBatchBackend adds native batch support and counts batch round trips.
type fakeBatchBackend struct {
	fakeBackend
	batchGets int
	batchSets int
}

func newFakeBatchBackend(name string) *fakeBatchBackend {
	return &fakeBatchBackend{fakeBackend: fakeBackend{name: name, data: make(map[string][]byte)}}
}

func (f *fakeBatchBackend) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchGets++
	if f.failing {
		return nil, errBackendDown
	}
	results := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if v, ok := f.data[key]; ok {
			results[key] = v
		}
	}
	return results, nil
}

func (f *fakeBatchBackend) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchSets++
	if f.failing {
		return errBackendDown
	}
	for key, value := range items {
		f.data[key] = append([]byte(nil), value...)
	}
	return nil
}

// fakeTTLBackend adds scriptable TTL introspection.
type fakeTTLBackend struct {
	fakeBackend
	remaining map[string]time.Duration
}

func newFakeTTLBackend(name string) *fakeTTLBackend {
	return &fakeTTLBackend{
		fakeBackend: fakeBackend{name: name, data: make(map[string][]byte)},
		remaining:   make(map[string]time.Duration),
	}
}

func (f *fakeTTLBackend) TTL(ctx context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.remaining[key]
	if !ok {
		return -1, nil
	}
	return d, nil
}

func (f *fakeTTLBackend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return false, nil
	}
	f.remaining[key] = ttl
	return true, nil
}

// fakeCounterBackend adds counter support on top of TTL introspection.
type fakeCounterBackend struct {
	fakeTTLBackend
	counters map[string]int64
}

func newFakeCounterBackend(name string) *fakeCounterBackend {
	return &fakeCounterBackend{
		fakeTTLBackend: fakeTTLBackend{
			fakeBackend: fakeBackend{name: name, data: make(map[string][]byte)},
			remaining:   make(map[string]time.Duration),
		},
		counters: make(map[string]int64),
	}
}

func (f *fakeCounterBackend) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, errBackendDown
	}
	f.counters[key] += delta
	return f.counters[key], nil
}

func newTestService(t *testing.T, primary, fallback types.Backend) *Service {
	t.Helper()
	svc, err := NewService(config.ForTesting(), &ServiceOptions{
		Primary:  primary,
		Fallback: fallback,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.CloseWithTimeout(time.Second) })
	return svc
}

func TestServiceSetGet(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	svc := newTestService(t, primary, nil)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	in := payload{Name: "alice", Count: 3}
	if err := svc.Set(ctx, "key", in, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var out payload
	if err := svc.Get(ctx, "key", &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out != in {
		t.Errorf("Get() = %+v, want %+v", out, in)
	}

	var missing payload
	if err := svc.Get(ctx, "absent", &missing); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestServiceMirrorsWritesToFallback(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	fallback := newFakeBackend("fallback")
	svc := newTestService(t, primary, fallback)

	if err := svc.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if !primary.has("key") {
		t.Error("primary missing key after Set")
	}
	if !fallback.has("key") {
		t.Error("fallback missing key after Set (mirror write)")
	}
}

func TestServiceFallbackOnPrimaryFailure(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	fallback := newFakeBackend("fallback")
	svc := newTestService(t, primary, fallback)

	if err := svc.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	primary.setFailing(true)

	var out string
	if err := svc.Get(ctx, "key", &out); err != nil {
		t.Fatalf("Get() during primary outage error = %v", err)
	}
	if out != "value" {
		t.Errorf("Get() = %q, want %q (served from fallback)", out, "value")
	}

	// Writes keep landing in the fallback while the primary is down
	if err := svc.Set(ctx, "key2", "v2", time.Minute); err != nil {
		t.Fatalf("Set() during primary outage error = %v", err)
	}
	if !fallback.has("key2") {
		t.Error("fallback missing key2 written during outage")
	}
}

func TestServiceTotalOutageDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	primary.setFailing(true)
	svc := newTestService(t, primary, nil)

	var out string
	if err := svc.Get(ctx, "key", &out); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}

	// With nowhere to store the value, Set surfaces the failure
	err := svc.Set(ctx, "key", "value", time.Minute)
	var cacheErr *types.CacheError
	if !errors.As(err, &cacheErr) {
		t.Errorf("Set() error = %v, want *CacheError", err)
	}
}

func TestServiceCircuitBreakerOpensAfterThreshold(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	fallback := newFakeBackend("fallback")
	svc := newTestService(t, primary, fallback)

	primary.setFailing(true)

	// ForTesting threshold is 3 consecutive failures
	for i := 0; i < 3; i++ {
		var out string
		if err := svc.Get(ctx, fmt.Sprintf("key-%d", i), &out); !errors.Is(err, types.ErrCacheMiss) {
			t.Fatalf("Get() error = %v, want ErrCacheMiss", err)
		}
	}

	if state := svc.Stats().CircuitState; state != "open" {
		t.Fatalf("CircuitState = %s, want open after threshold failures", state)
	}

	// While open the primary is bypassed entirely
	callsWhenOpened := primary.gets()
	for iter := 0; iter < 5; iter++ {
		var out string
		_ = svc.Get(ctx, "key", &out)
	}
	if got := primary.gets(); got != callsWhenOpened {
		t.Errorf("primary gets = %d, want %d (no calls while open)", got, callsWhenOpened)
	}
}

func TestServiceCircuitBreakerClosesAfterCooldown(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	fallback := newFakeBackend("fallback")
	svc := newTestService(t, primary, fallback)

	primary.setFailing(true)
	for iter := 0; iter < 3; iter++ {
		var out string
		_ = svc.Get(ctx, "key", &out)
	}
	if state := svc.Stats().CircuitState; state != "open" {
		t.Fatalf("CircuitState = %s, want open", state)
	}

	primary.setFailing(false)
	if err := primary.Set(ctx, "key", []byte(`"restored"`), time.Minute); err != nil {
		t.Fatalf("priming primary: %v", err)
	}

	// ForTesting cooldown is 50ms; the first call past it retries the
	// primary immediately
	time.Sleep(70 * time.Millisecond)

	before := primary.gets()
	var out string
	if err := svc.Get(ctx, "key", &out); err != nil {
		t.Fatalf("Get() after cooldown error = %v", err)
	}
	if out != "restored" {
		t.Errorf("Get() = %q, want %q (served from primary)", out, "restored")
	}
	if primary.gets() != before+1 {
		t.Error("primary not retried after cooldown")
	}
	if state := svc.Stats().CircuitState; state != "closed" {
		t.Errorf("CircuitState = %s, want closed after successful retry", state)
	}
}

func TestServiceMissesDoNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	svc := newTestService(t, primary, nil)

	for i := 0; i < 10; i++ {
		var out string
		if err := svc.Get(ctx, fmt.Sprintf("absent-%d", i), &out); !errors.Is(err, types.ErrCacheMiss) {
			t.Fatalf("Get() error = %v, want ErrCacheMiss", err)
		}
	}

	if state := svc.Stats().CircuitState; state != "closed" {
		t.Errorf("CircuitState = %s, want closed (misses are not failures)", state)
	}
}

// openBreakerService returns a service with no fallback whose breaker has
// been tripped and will stay open for the rest of the test; the primary is
// healthy again by the time it returns.
func openBreakerService(t *testing.T, primary types.Backend) *Service {
	t.Helper()

	cfg := config.ForTesting()
	cfg.CircuitBreaker.Cooldown = time.Minute

	svc, err := NewService(cfg, &ServiceOptions{Primary: primary})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.CloseWithTimeout(time.Second) })

	type failable interface{ setFailing(bool) }
	fb, ok := primary.(failable)
	if !ok {
		t.Fatal("primary backend is not scriptable")
	}

	ctx := context.Background()
	fb.setFailing(true)
	for i := 0; i < 3; i++ {
		var out string
		_ = svc.Get(ctx, fmt.Sprintf("trip-%d", i), &out)
	}
	fb.setFailing(false)

	if state := svc.Stats().CircuitState; state != "open" {
		t.Fatalf("CircuitState = %s, want open", state)
	}
	return svc
}

func TestServiceOpenBreakerWithoutFallbackUsesPrimary(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	svc := openBreakerService(t, primary)

	if err := svc.Set(ctx, "key", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	t.Run("delete removes the entry", func(t *testing.T) {
		if err := svc.Delete(ctx, "key"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if primary.has("key") {
			t.Error("entry survived its own deletion")
		}
		var out string
		if err := svc.Get(ctx, "key", &out); !errors.Is(err, types.ErrCacheMiss) {
			t.Errorf("Get() after Delete error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("contains probes the primary", func(t *testing.T) {
		if err := svc.Set(ctx, "present", "v", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		exists, err := svc.Contains(ctx, "present")
		if err != nil {
			t.Fatalf("Contains() error = %v", err)
		}
		if !exists {
			t.Error("Contains() = false for a stored key")
		}
	})

	t.Run("get many reads the primary", func(t *testing.T) {
		if err := svc.Set(ctx, "batch", "v", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		results, err := svc.GetMany(ctx, []string{"batch"})
		if err != nil {
			t.Fatalf("GetMany() error = %v", err)
		}
		if _, ok := results["batch"]; !ok {
			t.Error("GetMany() missing a stored key")
		}
	})

	t.Run("clear empties the primary", func(t *testing.T) {
		if err := svc.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if primary.has("present") || primary.has("batch") {
			t.Error("entries survived Clear")
		}
	})
}

func TestServiceOpenBreakerWithFallbackDeletesFromFallback(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	fallback := newFakeBackend("fallback")
	svc := newTestService(t, primary, fallback)

	if err := svc.Set(ctx, "key", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	primary.setFailing(true)
	for iter := 0; iter < 3; iter++ {
		var out string
		_ = svc.Get(ctx, "trip", &out)
	}
	if state := svc.Stats().CircuitState; state != "open" {
		t.Fatalf("CircuitState = %s, want open", state)
	}

	if err := svc.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if fallback.has("key") {
		t.Error("fallback entry survived deletion while the breaker was open")
	}

	var out string
	if err := svc.Get(ctx, "key", &out); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Get() after Delete error = %v, want ErrCacheMiss", err)
	}
}

func TestServiceGetMany(t *testing.T) {
	ctx := context.Background()

	t.Run("uses native batch support", func(t *testing.T) {
		primary := newFakeBatchBackend("primary")
		svc := newTestService(t, primary, nil)

		if err := svc.Set(ctx, "a", "1", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := svc.Set(ctx, "b", "2", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		results, err := svc.GetMany(ctx, []string{"a", "b", "missing"})
		if err != nil {
			t.Fatalf("GetMany() error = %v", err)
		}
		if len(results) != 2 {
			t.Errorf("GetMany() returned %d results, want 2", len(results))
		}
		if primary.batchGets != 1 {
			t.Errorf("batchGets = %d, want 1", primary.batchGets)
		}
	})

	t.Run("sequential fallback matches batch semantics", func(t *testing.T) {
		primary := newFakeBackend("primary")
		svc := newTestService(t, primary, nil)

		if err := svc.Set(ctx, "a", "1", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		results, err := svc.GetMany(ctx, []string{"a", "missing"})
		if err != nil {
			t.Fatalf("GetMany() error = %v", err)
		}
		if len(results) != 1 {
			t.Errorf("GetMany() returned %d results, want 1", len(results))
		}
		if _, ok := results["a"]; !ok {
			t.Error("GetMany() missing key a")
		}
	})

	t.Run("degrades to empty result on total outage", func(t *testing.T) {
		primary := newFakeBackend("primary")
		primary.setFailing(true)
		svc := newTestService(t, primary, nil)

		results, err := svc.GetMany(ctx, []string{"a", "b"})
		if err != nil {
			t.Fatalf("GetMany() error = %v", err)
		}
		if len(results) != 0 {
			t.Errorf("GetMany() returned %d results, want 0", len(results))
		}
	})
}

func TestServiceSetMany(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBatchBackend("primary")
	fallback := newFakeBackend("fallback")
	svc := newTestService(t, primary, fallback)

	items := map[string]any{"a": 1, "b": 2, "c": 3}
	if err := svc.SetMany(ctx, items, time.Minute); err != nil {
		t.Fatalf("SetMany() error = %v", err)
	}

	if primary.batchSets != 1 {
		t.Errorf("batchSets = %d, want 1", primary.batchSets)
	}

	for key := range items {
		if !primary.has(key) {
			t.Errorf("primary missing %s", key)
		}
		if !fallback.has(key) {
			t.Errorf("fallback missing %s (mirror write)", key)
		}
	}

	t.Run("serialization failure aborts before any write", func(t *testing.T) {
		before := primary.batchSets
		err := svc.SetMany(ctx, map[string]any{"bad": make(chan int)}, time.Minute)
		if !errors.Is(err, types.ErrSerializationFailed) {
			t.Errorf("SetMany() error = %v, want ErrSerializationFailed", err)
		}
		if primary.batchSets != before {
			t.Error("backend written despite serialization failure")
		}
	})
}

func TestServiceIncrementNotSupported(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	svc := newTestService(t, primary, nil)

	_, err := svc.Increment(ctx, "counter", 1, 0)
	if !errors.Is(err, types.ErrNotSupported) {
		t.Errorf("Increment() error = %v, want ErrNotSupported", err)
	}

	_, err = svc.Expire(ctx, "key", time.Minute)
	if !errors.Is(err, types.ErrNotSupported) {
		t.Errorf("Expire() error = %v, want ErrNotSupported", err)
	}
}

func TestServiceIncrementExpireReportCircuitOpen(t *testing.T) {
	ctx := context.Background()
	primary := newFakeCounterBackend("primary")
	svc := openBreakerService(t, primary)

	if _, err := svc.Increment(ctx, "counter", 1, 0); !types.IsCircuitOpen(err) {
		t.Errorf("Increment() error = %v, want ErrCircuitOpen", err)
	}
	if _, err := svc.Expire(ctx, "key", time.Minute); !types.IsCircuitOpen(err) {
		t.Errorf("Expire() error = %v, want ErrCircuitOpen", err)
	}
}

func TestServiceGetOrCompute(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	svc := newTestService(t, primary, nil)

	var computeCalls atomic.Int32
	compute := func() (any, error) {
		computeCalls.Add(1)
		return "computed", nil
	}

	var out string
	if err := svc.GetOrCompute(ctx, "key", &out, time.Minute, compute); err != nil {
		t.Fatalf("GetOrCompute() error = %v", err)
	}
	if out != "computed" {
		t.Errorf("GetOrCompute() = %q, want computed", out)
	}
	if n := computeCalls.Load(); n != 1 {
		t.Errorf("compute called %d times, want 1", n)
	}

	// Second call is served from cache
	out = ""
	if err := svc.GetOrCompute(ctx, "key", &out, time.Minute, compute); err != nil {
		t.Fatalf("GetOrCompute() error = %v", err)
	}
	if out != "computed" {
		t.Errorf("GetOrCompute() = %q, want computed", out)
	}
	if n := computeCalls.Load(); n != 1 {
		t.Errorf("compute called %d times after cached call, want 1", n)
	}

	t.Run("compute errors surface to the caller", func(t *testing.T) {
		wantErr := errors.New("upstream broke")
		var dest string
		err := svc.GetOrCompute(ctx, "other", &dest, time.Minute, func() (any, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("GetOrCompute() error = %v, want %v", err, wantErr)
		}
	})
}

func TestServiceGetOrComputeCoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	svc := newTestService(t, primary, nil)

	var computeCalls atomic.Int32
	release := make(chan struct{})
	compute := func() (any, error) {
		computeCalls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.GetOrCompute(ctx, "hot-key", &results[i], time.Minute, compute)
		}()
	}

	// Give the goroutines time to pile up on the singleflight group
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := computeCalls.Load(); n != 1 {
		t.Errorf("compute called %d times, want 1 (coalesced)", n)
	}
	for i, r := range results {
		if r != "shared" {
			t.Errorf("results[%d] = %q, want shared", i, r)
		}
	}
}

func TestServiceGetWithRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("miss computes synchronously", func(t *testing.T) {
		primary := newFakeTTLBackend("primary")
		svc := newTestService(t, primary, nil)

		var out string
		err := svc.GetWithRefresh(ctx, "key", &out, time.Minute, 0.8, func() (any, error) {
			return "fresh", nil
		})
		if err != nil {
			t.Fatalf("GetWithRefresh() error = %v", err)
		}
		if out != "fresh" {
			t.Errorf("GetWithRefresh() = %q, want fresh", out)
		}
	})

	t.Run("stale entry triggers background refresh", func(t *testing.T) {
		primary := newFakeTTLBackend("primary")
		svc := newTestService(t, primary, nil)

		if err := svc.Set(ctx, "key", "stale", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		// Remaining TTL is 10% of the minute: well below the 0.8 threshold
		primary.mu.Lock()
		primary.remaining["key"] = 6 * time.Second
		primary.mu.Unlock()

		refreshed := make(chan struct{})
		var once sync.Once
		var out string
		err := svc.GetWithRefresh(ctx, "key", &out, time.Minute, 0.8, func() (any, error) {
			once.Do(func() { close(refreshed) })
			return "fresh", nil
		})
		if err != nil {
			t.Fatalf("GetWithRefresh() error = %v", err)
		}
		// The caller gets the stale value immediately
		if out != "stale" {
			t.Errorf("GetWithRefresh() = %q, want stale", out)
		}

		select {
		case <-refreshed:
		case <-time.After(time.Second):
			t.Fatal("background refresh never ran")
		}

		// The refreshed value lands shortly after
		deadline := time.Now().Add(time.Second)
		for {
			var cur string
			if err := svc.Get(ctx, "key", &cur); err == nil && cur == "fresh" {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("refreshed value never stored")
			}
			time.Sleep(5 * time.Millisecond)
		}
	})

	t.Run("fresh entry is not refreshed", func(t *testing.T) {
		primary := newFakeTTLBackend("primary")
		svc := newTestService(t, primary, nil)

		if err := svc.Set(ctx, "key", "value", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		primary.mu.Lock()
		primary.remaining["key"] = 55 * time.Second
		primary.mu.Unlock()

		var computeCalls atomic.Int32
		var out string
		err := svc.GetWithRefresh(ctx, "key", &out, time.Minute, 0.8, func() (any, error) {
			computeCalls.Add(1)
			return "fresh", nil
		})
		if err != nil {
			t.Fatalf("GetWithRefresh() error = %v", err)
		}

		// Drain any background work before asserting
		_ = svc.CloseWithTimeout(time.Second)
		if n := computeCalls.Load(); n != 0 {
			t.Errorf("compute called %d times for fresh entry, want 0", n)
		}
	})
}

func TestServiceDeleteRemovesFromBothLayers(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	fallback := newFakeBackend("fallback")
	svc := newTestService(t, primary, fallback)

	if err := svc.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := svc.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if primary.has("key") {
		t.Error("primary still has key after Delete")
	}
	if fallback.has("key") {
		t.Error("fallback still has key after Delete")
	}
}

func TestServiceContains(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	svc := newTestService(t, primary, nil)

	if err := svc.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	exists, err := svc.Contains(ctx, "key")
	if err != nil {
		t.Fatalf("Contains() error = %v", err)
	}
	if !exists {
		t.Error("Contains(key) = false, want true")
	}

	exists, err = svc.Contains(ctx, "absent")
	if err != nil {
		t.Fatalf("Contains() error = %v", err)
	}
	if exists {
		t.Error("Contains(absent) = true, want false")
	}
}

func TestServiceClosed(t *testing.T) {
	ctx := context.Background()
	primary := newFakeBackend("primary")
	svc, err := NewService(config.ForTesting(), &ServiceOptions{Primary: primary})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var out string
	if err := svc.Get(ctx, "key", &out); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Get() after close error = %v, want ErrClosed", err)
	}
	if err := svc.Set(ctx, "key", "v", time.Minute); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Set() after close error = %v, want ErrClosed", err)
	}

	// Double close is a no-op
	if err := svc.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestServiceStats(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(config.ForTesting(), &ServiceOptions{
		Primary:  NewMemoryCache(config.ForTesting().Memory, nil),
		Fallback: nil,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer svc.Close()

	if err := svc.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	snap := svc.Stats()
	if snap.PrimaryBackend != "memory" {
		t.Errorf("PrimaryBackend = %s, want memory", snap.PrimaryBackend)
	}
	if !snap.PrimaryAvailable {
		t.Error("PrimaryAvailable = false, want true")
	}
	if snap.CircuitState != "closed" {
		t.Errorf("CircuitState = %s, want closed", snap.CircuitState)
	}
	if snap.Memory == nil {
		t.Fatal("Memory stats = nil, want populated")
	}
	if snap.Memory.Sets != 1 {
		t.Errorf("Memory.Sets = %d, want 1", snap.Memory.Sets)
	}
}

func TestServiceDisabledBreaker(t *testing.T) {
	ctx := context.Background()
	cfg := config.ForTesting()
	cfg.CircuitBreaker.Enabled = false

	primary := newFakeBackend("primary")
	fallback := newFakeBackend("fallback")
	svc, err := NewService(cfg, &ServiceOptions{Primary: primary, Fallback: fallback})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	defer svc.Close()

	primary.setFailing(true)

	// Every call keeps hitting the primary; the breaker never opens
	for iter := 0; iter < 10; iter++ {
		var out string
		_ = svc.Get(ctx, "key", &out)
	}

	if state := svc.Stats().CircuitState; state != resilience.StateClosed.String() {
		t.Errorf("CircuitState = %s, want closed with disabled breaker", state)
	}
	if got := primary.gets(); got != 10 {
		t.Errorf("primary gets = %d, want 10", got)
	}
}
