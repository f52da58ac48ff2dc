package types

import (
	"errors"
	"fmt"
)

var (
	ErrCacheMiss           = errors.New("cache: key not found")
	ErrBackendUnavailable  = errors.New("cache: backend unavailable")
	ErrCircuitOpen         = errors.New("cache: circuit breaker open")
	ErrClosed              = errors.New("cache: service closed")
	ErrValueTooLarge       = errors.New("cache: value exceeds memory budget")
	ErrSerializationFailed = errors.New("cache: serialization failed")
	ErrNotSupported        = errors.New("cache: operation not supported by backend")
	ErrShutdownTimeout     = errors.New("cache: shutdown timeout waiting for background operations")
)

// CacheError wraps a backend failure with the operation, key, and layer
// it occurred on.
type CacheError struct {
	Op    string
	Key   string
	Layer string
	Err   error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Layer, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Layer, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, layer string, err error) *CacheError {
	return &CacheError{
		Op:    op,
		Key:   key,
		Layer: layer,
		Err:   err,
	}
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

func IsValueTooLarge(err error) bool {
	return errors.Is(err, ErrValueTooLarge)
}
