package tierkv

import (
	"github.com/calebmoss/tierkv/internal/types"
)

// CacheError represents a cache operation error.
type CacheError = types.CacheError

var (
	// ErrCacheMiss indicates that a requested key was not found in the cache.
	ErrCacheMiss = types.ErrCacheMiss
	// ErrBackendUnavailable indicates that a backend is not reachable.
	ErrBackendUnavailable = types.ErrBackendUnavailable
	// ErrCircuitOpen indicates that the circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrClosed indicates that the cache service has been closed.
	ErrClosed = types.ErrClosed
	// ErrValueTooLarge indicates a value exceeding the memory byte budget.
	ErrValueTooLarge = types.ErrValueTooLarge
	// ErrSerializationFailed indicates that serialization failed.
	ErrSerializationFailed = types.ErrSerializationFailed
	// ErrNotSupported indicates an operation the backend cannot perform.
	ErrNotSupported = types.ErrNotSupported
	// ErrShutdownTimeout indicates background work outlived the close timeout.
	ErrShutdownTimeout = types.ErrShutdownTimeout
)

// NewCacheError creates a new cache error with operation, key, layer, and underlying error.
func NewCacheError(op, key, layer string, err error) *CacheError {
	return types.NewCacheError(op, key, layer, err)
}

// IsCacheMiss returns true if the error is a cache miss.
func IsCacheMiss(err error) bool {
	return types.IsCacheMiss(err)
}

// IsBackendUnavailable returns true if the error indicates an unreachable backend.
func IsBackendUnavailable(err error) bool {
	return types.IsBackendUnavailable(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsValueTooLarge returns true if the error indicates an oversized value.
func IsValueTooLarge(err error) bool {
	return types.IsValueTooLarge(err)
}
