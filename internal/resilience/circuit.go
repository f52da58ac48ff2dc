// Package resilience provides failure isolation for cache operations.
package resilience

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/calebmoss/tierkv/internal/config"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitBreaker is the facade's failure isolation state machine. It has two
// states: Closed (primary backend used normally) and Open (primary bypassed).
// The breaker opens after FailureThreshold consecutive failures and closes
// lazily on the first Allow call once the cooldown has elapsed, at which
// point the failure counter resets and the primary is retried immediately.
type Breaker struct {
	failureThreshold int
	cooldown         time.Duration

	state atomic.Int32

	mu                  sync.Mutex
	consecutiveFailures int
	lastFailureTime     time.Time

	onStateChange func(from, to State)
}

// stateTransition allows callbacks to be invoked outside the mutex to
// prevent deadlocks.
type stateTransition struct {
	from     State
	to       State
	callback func(from, to State)
}

// NewBreaker creates a breaker from configuration, applying defaults for
// non-positive values.
func NewBreaker(cfg config.CircuitBreakerConfig) *Breaker {
	b := &Breaker{
		failureThreshold: cfg.FailureThreshold,
		cooldown:         cfg.Cooldown,
	}

	if b.failureThreshold <= 0 {
		b.failureThreshold = 3
	}
	if b.cooldown <= 0 {
		b.cooldown = 30 * time.Second
	}

	b.state.Store(int32(StateClosed))

	return b
}

// Allow reports whether the primary backend should be called. While open it
// returns false until the cooldown has elapsed since the last failure; the
// first call past the cooldown closes the breaker and returns true.
func (b *Breaker) Allow() bool {
	if State(b.state.Load()) == StateClosed {
		return true
	}

	var transition *stateTransition
	allowed := false

	b.mu.Lock()
	if time.Since(b.lastFailureTime) > b.cooldown {
		transition = b.transitionTo(StateClosed)
		allowed = true
	}
	b.mu.Unlock()

	transition.invoke()
	return allowed
}

// RecordSuccess resets the consecutive failure counter while closed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	if State(b.state.Load()) == StateClosed {
		b.consecutiveFailures = 0
	}
	b.mu.Unlock()
}

// RecordFailure counts a primary-backend failure and opens the breaker once
// the threshold is reached.
func (b *Breaker) RecordFailure() {
	var transition *stateTransition

	b.mu.Lock()
	b.consecutiveFailures++
	b.lastFailureTime = time.Now()
	if State(b.state.Load()) == StateClosed && b.consecutiveFailures >= b.failureThreshold {
		transition = b.transitionTo(StateOpen)
	}
	b.mu.Unlock()

	transition.invoke()
}

// transitionTo changes the breaker state. Must be called while holding the
// mutex. The caller MUST invoke the returned transition (if non-nil) AFTER
// releasing the mutex to prevent deadlocks.
func (b *Breaker) transitionTo(newState State) *stateTransition {
	oldState := State(b.state.Load())
	if oldState == newState {
		return nil
	}

	if newState == StateClosed {
		b.consecutiveFailures = 0
	}

	b.state.Store(int32(newState))

	if b.onStateChange != nil {
		return &stateTransition{
			from:     oldState,
			to:       newState,
			callback: b.onStateChange,
		}
	}
	return nil
}

// invoke safely runs a state transition callback.
// Must be called AFTER releasing the mutex.
func (t *stateTransition) invoke() {
	if t != nil && t.callback != nil {
		t.callback(t.from, t.to)
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// IsOpen returns true if the breaker is open.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// SetOnStateChange sets a callback for state changes. The callback is
// invoked synchronously after the transition completes and may safely read
// breaker state without risk of deadlock.
func (b *Breaker) SetOnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

// Reset forces the breaker back to closed with a zeroed failure counter.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.state.Store(int32(StateClosed))
}

// Stats returns breaker counters for observability.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStats{
		State:               b.State(),
		ConsecutiveFailures: b.consecutiveFailures,
		LastFailureTime:     b.lastFailureTime,
	}
}

// BreakerStats contains circuit breaker statistics.
type BreakerStats struct {
	State               State
	ConsecutiveFailures int
	LastFailureTime     time.Time
}

// DisabledBreaker is a no-op breaker that allows every request.
type DisabledBreaker struct{}

// NewDisabledBreaker creates a disabled breaker.
func NewDisabledBreaker() *DisabledBreaker {
	return &DisabledBreaker{}
}

// Allow returns true as this breaker is disabled.
func (b *DisabledBreaker) Allow() bool { return true }

// RecordSuccess does nothing as this breaker is disabled.
func (b *DisabledBreaker) RecordSuccess() {}

// RecordFailure does nothing as this breaker is disabled.
func (b *DisabledBreaker) RecordFailure() {}

// State returns StateClosed as this breaker is disabled.
func (b *DisabledBreaker) State() State { return StateClosed }

// IsOpen returns false as this breaker is disabled.
func (b *DisabledBreaker) IsOpen() bool { return false }

// SetOnStateChange does nothing as this breaker is disabled.
func (b *DisabledBreaker) SetOnStateChange(fn func(from, to State)) {}

// Reset does nothing as this breaker is disabled.
func (b *DisabledBreaker) Reset() {}

// Stats returns zero values as this breaker is disabled.
func (b *DisabledBreaker) Stats() BreakerStats { return BreakerStats{State: StateClosed} }
