package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/calebmoss/tierkv/internal/config"
	"github.com/calebmoss/tierkv/internal/resilience"
	"github.com/calebmoss/tierkv/internal/types"
)

// DefaultShutdownTimeout is the default timeout for shutting down the service.
const DefaultShutdownTimeout = 30 * time.Second

// DefaultBackgroundOpTimeout is the default timeout for background refreshes.
const DefaultBackgroundOpTimeout = 5 * time.Second

// Role labels used for metrics and logging.
const (
	layerPrimary  = "primary"
	layerFallback = "fallback"
)

// circuitBreaker is the subset of the breaker the service depends on.
type circuitBreaker interface {
	Allow() bool
	RecordSuccess()
	RecordFailure()
	State() resilience.State
	IsOpen() bool
	SetOnStateChange(fn func(from, to resilience.State))
	Reset()
	Stats() resilience.BreakerStats
}

// ServiceOptions holds construction-time overrides for the cache service.
type ServiceOptions struct {
	// Logger is the structured logger to use.
	Logger types.Logger

	// Metrics is the metrics recorder.
	Metrics types.MetricsRecorder

	// Serializer is the value serializer.
	Serializer types.Serializer

	// Primary overrides backend selection entirely. Used by tests and
	// callers with custom backends.
	Primary types.Backend

	// Fallback is only consulted when Primary is set.
	Fallback types.Backend
}

// Service is the resilient cache facade. It owns a primary backend, an
// optional fallback backend, and the circuit breaker that decides between
// them. Backend failures are counted against the breaker and degrade to a
// miss or a false result; they are never re-raised to callers.
type Service struct {
	primary    types.Backend
	fallback   types.Backend
	breaker    circuitBreaker
	serializer types.Serializer
	config     *config.Config
	metrics    types.MetricsRecorder
	logger     *slog.Logger

	shutdownCancel context.CancelFunc
	shutdownCtx    context.Context
	sfGroup        singleflight.Group
	bgWg           sync.WaitGroup
	bgMu           sync.Mutex
	closed         atomic.Bool
}

// NewService creates a cache service from configuration. BackendURL selects
// the distributed backend (with the in-memory cache as fallback); without it
// the file backend runs alone.
func NewService(cfg *config.Config, opts *ServiceOptions) (*Service, error) {
	logger := slog.Default()
	if opts != nil && opts.Logger != nil {
		logger = slog.New(slogAdapter{logger: opts.Logger})
	}
	logger = logger.With("component", "cache-service")

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	s := &Service{
		config:         cfg,
		logger:         logger,
		serializer:     NewJSONSerializer(),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	if opts != nil {
		if opts.Serializer != nil {
			s.serializer = opts.Serializer
		}
		if opts.Metrics != nil {
			s.metrics = opts.Metrics
		}
	}

	if opts != nil && opts.Primary != nil {
		s.primary = opts.Primary
		s.fallback = opts.Fallback
	} else if err := s.selectBackends(cfg, logger); err != nil {
		shutdownCancel()
		return nil, err
	}

	if cfg.CircuitBreaker.Enabled {
		s.breaker = resilience.NewBreaker(cfg.CircuitBreaker)
	} else {
		s.breaker = resilience.NewDisabledBreaker()
	}

	s.breaker.SetOnStateChange(func(from, to resilience.State) {
		logger.Info("Circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
		if s.metrics != nil {
			s.metrics.RecordCircuitStateChange(from.String(), to.String())
		}
	})

	return s, nil
}

// selectBackends wires the primary and fallback per configuration.
func (s *Service) selectBackends(cfg *config.Config, logger *slog.Logger) error {
	if cfg.BackendURL != "" {
		rc, err := NewRedisCache(cfg.BackendURL, cfg.Redis, logger)
		if err != nil {
			logger.Warn("Failed to create Redis backend, using file backend", "error", err)
		} else {
			s.primary = rc
			s.fallback = NewMemoryCache(cfg.Memory, logger)
			return nil
		}
	}

	fc, err := NewFileCache(cfg.File.Dir, logger)
	if err != nil {
		return err
	}
	s.primary = fc
	return nil
}

// Get retrieves a value into dest. Absent and expired keys return
// ErrCacheMiss; so does a total backend outage.
func (s *Service) Get(ctx context.Context, key string, dest any) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	start := time.Now()

	data, layer, err := s.fetch(ctx, key)
	latency := time.Since(start)

	if err != nil {
		if s.metrics != nil && types.IsCacheMiss(err) {
			s.metrics.RecordMiss(layer, key, latency)
		}
		return err
	}

	if err := s.serializer.Unmarshal(data, dest); err != nil {
		s.logger.Debug("Deserialization failed", "key", key, "error", err)
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordHit(layer, key, latency)
	}

	return nil
}

// fetch returns the raw payload for a key through the breaker funnel.
func (s *Service) fetch(ctx context.Context, key string) ([]byte, string, error) {
	if !s.breaker.Allow() && s.fallback != nil {
		data, err := s.fallback.Get(ctx, key)
		if err != nil && !types.IsCacheMiss(err) {
			s.logger.Debug("Fallback read failed", "key", key, "error", err)
			return nil, layerFallback, types.ErrCacheMiss
		}
		return data, layerFallback, err
	}

	data, err := s.primary.Get(ctx, key)
	if err == nil || types.IsCacheMiss(err) {
		s.breaker.RecordSuccess()
		return data, layerPrimary, err
	}

	s.recordPrimaryFailure("Get", key, err)

	if s.fallback != nil {
		data, ferr := s.fallback.Get(ctx, key)
		if ferr != nil && !types.IsCacheMiss(ferr) {
			return nil, layerFallback, types.ErrCacheMiss
		}
		return data, layerFallback, ferr
	}

	return nil, layerPrimary, types.ErrCacheMiss
}

// Set stores a value with the given TTL (the configured default when
// ttl <= 0). Successful primary writes are mirrored into the fallback
// best-effort; mirror errors are swallowed.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	start := time.Now()

	data, err := s.serializer.Marshal(value)
	if err != nil {
		s.logger.Warn("Value serialization failed", "key", key, "error", err)
		return err
	}

	if ttl <= 0 {
		ttl = s.config.Defaults.TTL
	}

	err = s.store(ctx, key, data, ttl)

	if s.metrics != nil {
		s.metrics.RecordSet(s.primary.Name(), key, len(data), time.Since(start))
	}

	return err
}

func (s *Service) store(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !s.breaker.Allow() && s.fallback != nil {
		if err := s.fallback.Set(ctx, key, data, ttl); err != nil {
			return types.NewCacheError("Set", key, layerFallback, err)
		}
		return nil
	}

	if err := s.primary.Set(ctx, key, data, ttl); err != nil {
		s.recordPrimaryFailure("Set", key, err)
		if s.fallback != nil {
			if ferr := s.fallback.Set(ctx, key, data, ttl); ferr != nil {
				return types.NewCacheError("Set", key, layerFallback, ferr)
			}
			return nil
		}
		return types.NewCacheError("Set", key, layerPrimary, err)
	}

	s.breaker.RecordSuccess()

	if s.fallback != nil {
		if merr := s.fallback.Set(ctx, key, data, ttl); merr != nil {
			s.logger.Debug("Fallback mirror write failed", "key", key, "error", merr)
		}
	}

	return nil
}

// Delete removes a key from the primary and the fallback. Absence is not
// an error. An open breaker routes to the fallback when one exists;
// otherwise the primary is still called so the key cannot survive its own
// deletion during a cooldown.
func (s *Service) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	start := time.Now()
	var err error

	if !s.breaker.Allow() && s.fallback != nil {
		if ferr := s.fallback.Delete(ctx, key); ferr != nil {
			s.logger.Debug("Fallback delete failed", "key", key, "error", ferr)
		}
	} else {
		if derr := s.primary.Delete(ctx, key); derr != nil {
			s.recordPrimaryFailure("Delete", key, derr)
			if s.fallback == nil {
				err = types.NewCacheError("Delete", key, layerPrimary, derr)
			}
		} else {
			s.breaker.RecordSuccess()
		}

		if s.fallback != nil {
			if ferr := s.fallback.Delete(ctx, key); ferr != nil {
				s.logger.Debug("Fallback delete failed", "key", key, "error", ferr)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.RecordDelete(s.primary.Name(), key, time.Since(start))
	}

	return err
}

// Clear removes all entries from the primary and the fallback, routed
// through the same breaker funnel as Delete.
func (s *Service) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	if !s.breaker.Allow() && s.fallback != nil {
		if ferr := s.fallback.Clear(ctx); ferr != nil {
			s.logger.Debug("Fallback clear failed", "error", ferr)
		}
		return nil
	}

	var err error

	if cerr := s.primary.Clear(ctx); cerr != nil {
		s.recordPrimaryFailure("Clear", "", cerr)
		if s.fallback == nil {
			err = types.NewCacheError("Clear", "", layerPrimary, cerr)
		}
	} else {
		s.breaker.RecordSuccess()
	}

	if s.fallback != nil {
		if ferr := s.fallback.Clear(ctx); ferr != nil {
			s.logger.Debug("Fallback clear failed", "error", ferr)
		}
	}

	return err
}

// Contains reports whether a live entry exists for the key, routed through
// the same breaker funnel as Get. A backend outage degrades to false.
func (s *Service) Contains(ctx context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, types.ErrClosed
	}

	if !s.breaker.Allow() && s.fallback != nil {
		exists, err := existsOn(ctx, s.fallback, key)
		if err != nil {
			s.logger.Debug("Fallback existence check failed", "key", key, "error", err)
			return false, nil
		}
		return exists, nil
	}

	exists, err := existsOn(ctx, s.primary, key)
	if err == nil {
		s.breaker.RecordSuccess()
		return exists, nil
	}
	s.recordPrimaryFailure("Contains", key, err)

	if s.fallback != nil {
		if exists, ferr := existsOn(ctx, s.fallback, key); ferr == nil {
			return exists, nil
		}
	}

	return false, nil
}

// existsOn checks one backend for a live entry, probing with Get when the
// backend has no native existence check.
func existsOn(ctx context.Context, backend types.Backend, key string) (bool, error) {
	if ec, ok := backend.(types.ExistenceChecker); ok {
		return ec.Exists(ctx, key)
	}

	_, err := backend.Get(ctx, key)
	if err == nil {
		return true, nil
	}
	if types.IsCacheMiss(err) {
		return false, nil
	}
	return false, err
}

// GetMany retrieves multiple raw payloads. The primary's native batch
// support is used when present; otherwise the keys are fetched one by one
// with identical observable semantics. A backend outage degrades to an
// all-miss result.
func (s *Service) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if s.closed.Load() {
		return nil, types.ErrClosed
	}

	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	if !s.breaker.Allow() && s.fallback != nil {
		results, err := getManyFrom(ctx, s.fallback, keys)
		if err != nil {
			s.logger.Debug("Fallback GetMany failed", "error", err)
			return make(map[string][]byte), nil
		}
		return results, nil
	}

	results, err := getManyFrom(ctx, s.primary, keys)
	if err == nil {
		s.breaker.RecordSuccess()
		return results, nil
	}
	s.recordPrimaryFailure("GetMany", "", err)

	if s.fallback != nil {
		results, ferr := getManyFrom(ctx, s.fallback, keys)
		if ferr == nil {
			return results, nil
		}
		s.logger.Debug("Fallback GetMany failed", "error", ferr)
	}

	return make(map[string][]byte), nil
}

// getManyFrom reads a key set from one backend, batched when supported.
func getManyFrom(ctx context.Context, backend types.Backend, keys []string) (map[string][]byte, error) {
	if bb, ok := backend.(types.BatchBackend); ok {
		return bb.GetMany(ctx, keys)
	}

	results := make(map[string][]byte, len(keys))
	for _, key := range keys {
		data, err := backend.Get(ctx, key)
		if err != nil {
			if types.IsCacheMiss(err) {
				continue
			}
			return nil, err
		}
		results[key] = data
	}
	return results, nil
}

// SetMany stores multiple values with one TTL. Serialization failures fail
// the whole call before any backend write.
func (s *Service) SetMany(ctx context.Context, items map[string]any, ttl time.Duration) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	if len(items) == 0 {
		return nil
	}

	if ttl <= 0 {
		ttl = s.config.Defaults.TTL
	}

	serialized := make(map[string][]byte, len(items))
	for key, value := range items {
		data, err := s.serializer.Marshal(value)
		if err != nil {
			s.logger.Warn("Value serialization failed", "key", key, "error", err)
			return err
		}
		serialized[key] = data
	}

	if !s.breaker.Allow() && s.fallback != nil {
		if err := setManyOn(ctx, s.fallback, serialized, ttl); err != nil {
			return types.NewCacheError("SetMany", "", layerFallback, err)
		}
		return nil
	}

	if err := setManyOn(ctx, s.primary, serialized, ttl); err != nil {
		s.recordPrimaryFailure("SetMany", "", err)
		if s.fallback != nil {
			if ferr := setManyOn(ctx, s.fallback, serialized, ttl); ferr != nil {
				return types.NewCacheError("SetMany", "", layerFallback, ferr)
			}
			return nil
		}
		return types.NewCacheError("SetMany", "", layerPrimary, err)
	}

	s.breaker.RecordSuccess()

	if s.fallback != nil {
		if merr := setManyOn(ctx, s.fallback, serialized, ttl); merr != nil {
			s.logger.Debug("Fallback mirror batch write failed", "error", merr)
		}
	}

	return nil
}

// setManyOn writes an item set to one backend, pipelined when supported.
func setManyOn(ctx context.Context, backend types.Backend, items map[string][]byte, ttl time.Duration) error {
	if bb, ok := backend.(types.BatchBackend); ok {
		return bb.SetMany(ctx, items, ttl)
	}

	var errs []error
	for key, data := range items {
		if err := backend.Set(ctx, key, data, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Increment atomically adds delta to a counter, applying ttl to the key
// when one is given. Backends without counter support report
// ErrNotSupported. Counters have no fallback representation, so an open
// breaker reports ErrCircuitOpen and a runtime failure degrades to zero.
func (s *Service) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if s.closed.Load() {
		return 0, types.ErrClosed
	}

	cb, ok := s.primary.(types.CounterBackend)
	if !ok {
		return 0, types.ErrNotSupported
	}

	if !s.breaker.Allow() {
		return 0, types.ErrCircuitOpen
	}

	n, err := cb.Increment(ctx, key, delta)
	if err != nil {
		s.recordPrimaryFailure("Increment", key, err)
		return 0, nil
	}
	s.breaker.RecordSuccess()

	if ttl > 0 {
		if _, err := s.Expire(ctx, key, ttl); err != nil {
			s.logger.Debug("Failed to set TTL after increment", "key", key, "error", err)
		}
	}

	return n, nil
}

// Expire sets the TTL of an existing key on the primary backend. An open
// breaker reports ErrCircuitOpen; a runtime failure degrades to false.
func (s *Service) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.closed.Load() {
		return false, types.ErrClosed
	}

	tb, ok := s.primary.(types.TTLBackend)
	if !ok {
		return false, types.ErrNotSupported
	}

	if !s.breaker.Allow() {
		return false, types.ErrCircuitOpen
	}

	applied, err := tb.Expire(ctx, key, ttl)
	if err != nil {
		s.recordPrimaryFailure("Expire", key, err)
		return false, nil
	}
	s.breaker.RecordSuccess()
	return applied, nil
}

// GetOrCompute returns the cached value for key, invoking compute on a miss
// and storing the result with ttl. Concurrent misses for the same key are
// coalesced into one compute invocation.
func (s *Service) GetOrCompute(ctx context.Context, key string, dest any, ttl time.Duration, compute func() (any, error)) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	err := s.Get(ctx, key, dest)
	if err == nil {
		return nil
	}

	if !types.IsCacheMiss(err) {
		return err
	}

	result, err, _ := s.sfGroup.Do(key, func() (any, error) {
		if data, _, checkErr := s.fetch(ctx, key); checkErr == nil {
			return data, nil
		}

		value, computeErr := compute()
		if computeErr != nil {
			return nil, computeErr
		}

		data, marshalErr := s.serializer.Marshal(value)
		if marshalErr != nil {
			return nil, marshalErr
		}

		if setErr := s.Set(ctx, key, value, ttl); setErr != nil {
			s.logger.Debug("Failed to cache computed value", "key", key, "error", setErr)
		}

		return data, nil
	})

	if err != nil {
		return err
	}

	data, ok := result.([]byte)
	if !ok {
		return types.ErrSerializationFailed
	}

	return s.serializer.Unmarshal(data, dest)
}

// GetWithRefresh returns the cached value and, when the remaining TTL
// fraction has dropped below threshold, schedules a detached background
// recompute that overwrites the entry on completion. The current call never
// waits for the refresh. A miss computes synchronously via GetOrCompute.
func (s *Service) GetWithRefresh(ctx context.Context, key string, dest any, ttl time.Duration, threshold float64, compute func() (any, error)) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	if threshold <= 0 {
		threshold = s.config.Refresh.Threshold
	}

	err := s.Get(ctx, key, dest)
	if err == nil {
		s.maybeScheduleRefresh(ctx, key, ttl, threshold, compute)
		return nil
	}

	if types.IsCacheMiss(err) {
		return s.GetOrCompute(ctx, key, dest, ttl, compute)
	}

	return err
}

// maybeScheduleRefresh checks the remaining TTL on the primary and spawns a
// tracked background refresh when it is below the threshold fraction.
func (s *Service) maybeScheduleRefresh(ctx context.Context, key string, ttl time.Duration, threshold float64, compute func() (any, error)) {
	tb, ok := s.primary.(types.TTLBackend)
	if !ok || ttl <= 0 || s.breaker.IsOpen() {
		return
	}

	remaining, err := tb.TTL(ctx, key)
	if err != nil || remaining <= 0 {
		return
	}

	if float64(remaining)/float64(ttl) >= threshold {
		return
	}

	s.runBackground(func(ctx context.Context) {
		value, err := compute()
		if err != nil {
			s.logger.Warn("Background refresh failed", "key", key, "error", err)
			return
		}
		if err := s.Set(ctx, key, value, ttl); err != nil {
			s.logger.Warn("Background refresh store failed", "key", key, "error", err)
			return
		}
		s.logger.Debug("Background refresh completed", "key", key)
	})
}

// Stats returns an observability snapshot of the facade and its backends.
func (s *Service) Stats() types.Snapshot {
	snap := types.Snapshot{
		Timestamp:        time.Now(),
		PrimaryBackend:   s.primary.Name(),
		PrimaryAvailable: s.primary.IsAvailable(),
		CircuitState:     s.breaker.State().String(),
		CircuitFailures:  s.breaker.Stats().ConsecutiveFailures,
	}

	if s.fallback != nil {
		snap.FallbackBackend = s.fallback.Name()
		snap.FallbackAvailable = s.fallback.IsAvailable()
	}

	for _, backend := range []types.Backend{s.primary, s.fallback} {
		switch b := backend.(type) {
		case *MemoryCache:
			stats := b.Stats()
			snap.Memory = &stats
		case *RedisCache:
			stats := b.Stats()
			snap.Remote = &stats
		}
	}

	return snap
}

// IsPrimaryAvailable returns true if the primary backend is reachable and
// the breaker is not open.
func (s *Service) IsPrimaryAvailable() bool {
	return s.primary.IsAvailable() && !s.breaker.IsOpen()
}

// Close releases all resources using the default shutdown timeout.
func (s *Service) Close() error {
	return s.CloseWithTimeout(DefaultShutdownTimeout)
}

// CloseWithTimeout waits for in-flight background refreshes up to timeout,
// then closes the backends. Exceeding the timeout returns
// ErrShutdownTimeout but still closes the backends.
func (s *Service) CloseWithTimeout(timeout time.Duration) error {
	// Acquire bgMu to prevent new background refreshes from starting; this
	// synchronizes with runBackground so no Add races with Wait.
	s.bgMu.Lock()
	if s.closed.Swap(true) {
		s.bgMu.Unlock()
		return nil
	}
	s.shutdownCancel()
	s.bgMu.Unlock()

	s.logger.Info("Closing cache service, waiting for background operations", "timeout", timeout)

	done := make(chan struct{})
	go func() {
		s.bgWg.Wait()
		close(done)
	}()

	var timedOut bool
	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("Shutdown timeout exceeded, proceeding with close", "timeout", timeout)
		timedOut = true
	}

	var errs []error

	if timedOut {
		errs = append(errs, types.ErrShutdownTimeout)
	}

	if err := s.primary.Close(); err != nil {
		errs = append(errs, err)
	}

	if s.fallback != nil {
		if err := s.fallback.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// runBackground executes fn in a goroutine tracked for graceful shutdown.
// The function receives a context derived from the shutdown context with a
// timeout. Nothing is started once the service is closed.
func (s *Service) runBackground(fn func(ctx context.Context)) {
	s.bgMu.Lock()
	if s.closed.Load() {
		s.bgMu.Unlock()
		return
	}
	s.bgWg.Add(1)
	s.bgMu.Unlock()

	go func() {
		defer s.bgWg.Done()
		ctx, cancel := context.WithTimeout(s.shutdownCtx, DefaultBackgroundOpTimeout)
		defer cancel()
		fn(ctx)
	}()
}

var _ types.Cache = (*Service)(nil)

// recordPrimaryFailure counts a primary-backend failure against the breaker.
func (s *Service) recordPrimaryFailure(op, key string, err error) {
	s.breaker.RecordFailure()
	s.logger.Warn("Primary backend operation failed", "op", op, "key", key, "backend", s.primary.Name(), "error", err)
	if s.metrics != nil {
		s.metrics.RecordError(layerPrimary, op, err)
	}
}

//nolint:govet // Simple adapter struct - alignment optimization minimal
type slogAdapter struct {
	attrs  []slog.Attr
	logger types.Logger
	group  string // current group prefix from WithGroup calls
}

// Enabled implements slog.Handler.
func (a slogAdapter) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires passing Record by value
func (a slogAdapter) Handle(ctx context.Context, r slog.Record) error {
	args := make([]any, 0, (len(a.attrs)+r.NumAttrs())*2)

	for _, attr := range a.attrs {
		key := attr.Key
		if a.group != "" {
			key = a.group + "." + key
		}
		args = append(args, key, attr.Value.Any())
	}

	r.Attrs(func(attr slog.Attr) bool {
		key := attr.Key
		if a.group != "" {
			key = a.group + "." + key
		}
		args = append(args, key, attr.Value.Any())
		return true
	})

	switch r.Level {
	case slog.LevelDebug:
		a.logger.Debug(r.Message, args...)
	case slog.LevelInfo:
		a.logger.Info(r.Message, args...)
	case slog.LevelWarn:
		a.logger.Warn(r.Message, args...)
	case slog.LevelError:
		a.logger.Error(r.Message, args...)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (a slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(a.attrs), len(a.attrs)+len(attrs))
	copy(newAttrs, a.attrs)
	newAttrs = append(newAttrs, attrs...)
	return slogAdapter{
		logger: a.logger,
		attrs:  newAttrs,
		group:  a.group,
	}
}

// WithGroup implements slog.Handler.
func (a slogAdapter) WithGroup(name string) slog.Handler {
	newGroup := name
	if a.group != "" {
		newGroup = a.group + "." + name
	}
	return slogAdapter{
		logger: a.logger,
		attrs:  a.attrs,
		group:  newGroup,
	}
}
