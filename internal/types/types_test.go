package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCacheError(t *testing.T) {
	t.Run("formats with key", func(t *testing.T) {
		err := NewCacheError("Get", "user:1", "redis", ErrBackendUnavailable)
		msg := err.Error()
		for _, part := range []string{"Get", "user:1", "redis"} {
			if !strings.Contains(msg, part) {
				t.Errorf("Error() = %q, missing %q", msg, part)
			}
		}
	})

	t.Run("formats without key", func(t *testing.T) {
		err := NewCacheError("Clear", "", "memory", ErrClosed)
		if strings.Contains(err.Error(), "[]") {
			t.Errorf("Error() = %q, stray empty key brackets", err.Error())
		}
	})

	t.Run("unwraps to the sentinel", func(t *testing.T) {
		err := NewCacheError("Set", "k", "memory", ErrValueTooLarge)
		if !errors.Is(err, ErrValueTooLarge) {
			t.Error("errors.Is() = false, want true through Unwrap")
		}
		if !IsValueTooLarge(err) {
			t.Error("IsValueTooLarge() = false, want true")
		}
	})
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred func(error) bool
		err  error
	}{
		{"cache miss", IsCacheMiss, ErrCacheMiss},
		{"backend unavailable", IsBackendUnavailable, ErrBackendUnavailable},
		{"circuit open", IsCircuitOpen, ErrCircuitOpen},
		{"value too large", IsValueTooLarge, ErrValueTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.pred(tt.err) {
				t.Error("predicate = false for own sentinel")
			}
			if tt.pred(errors.New("other")) {
				t.Error("predicate = true for unrelated error")
			}
			if tt.pred(nil) {
				t.Error("predicate = true for nil")
			}
		})
	}
}

func TestEntryIsExpired(t *testing.T) {
	now := time.Now()
	e := Entry{Key: "k", Value: []byte("v"), CreatedAt: now, ExpiresAt: now.Add(time.Minute)}

	if e.IsExpired(now) {
		t.Error("IsExpired(now) = true for live entry")
	}
	if !e.IsExpired(now.Add(2 * time.Minute)) {
		t.Error("IsExpired() = false past expiry")
	}
}

func TestRemoteStats(t *testing.T) {
	s := RemoteStats{
		Hits:           3,
		Misses:         1,
		TotalLatency:   40 * time.Millisecond,
		OperationCount: 4,
	}

	if got := s.HitRate(); got != 0.75 {
		t.Errorf("HitRate() = %v, want 0.75", got)
	}
	if got := s.AvgLatency(); got != 10*time.Millisecond {
		t.Errorf("AvgLatency() = %v, want 10ms", got)
	}

	var zero RemoteStats
	if zero.HitRate() != 0 {
		t.Errorf("HitRate() on zero stats = %v, want 0", zero.HitRate())
	}
	if zero.AvgLatency() != 0 {
		t.Errorf("AvgLatency() on zero stats = %v, want 0", zero.AvgLatency())
	}
}

func TestSecretString(t *testing.T) {
	s := NewSecretString("p@ssw0rd")

	if s.Value() != "p@ssw0rd" {
		t.Errorf("Value() = %s", s.Value())
	}
	if s.String() != "[REDACTED]" {
		t.Errorf("String() = %s, want [REDACTED]", s.String())
	}
	if s.IsEmpty() {
		t.Error("IsEmpty() = true for non-empty secret")
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "p@ssw0rd") {
		t.Error("Marshal() leaks the secret")
	}

	var round SecretString
	if err := json.Unmarshal([]byte(`"restored"`), &round); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if round.Value() != "restored" {
		t.Errorf("Value() after unmarshal = %s", round.Value())
	}

	var empty SecretString
	if empty.String() != "" {
		t.Errorf("String() on empty = %q, want empty", empty.String())
	}
}
