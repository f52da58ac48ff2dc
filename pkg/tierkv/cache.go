package tierkv

import (
	"github.com/calebmoss/tierkv/internal/metrics"
	"github.com/calebmoss/tierkv/internal/types"
)

type (
	// Cache is the public surface of the resilient cache service.
	Cache = types.Cache
	// TenantView is the keyed subset of Cache scoped to one tenant.
	TenantView = types.TenantView
	// Snapshot is a point-in-time view of the service and its backends.
	Snapshot = types.Snapshot
	// MemoryStats contains statistics about the in-memory backend.
	MemoryStats = types.MemoryStats
	// RemoteStats contains statistics about the distributed backend.
	RemoteStats = types.RemoteStats
	// MetricsSnapshot is a point-in-time view of accumulated operation metrics.
	MetricsSnapshot = metrics.Snapshot
	// Backend is the contract every cache backend implements.
	Backend = types.Backend
	// Serializer provides serialization and deserialization operations.
	Serializer = types.Serializer
	// MetricsRecorder provides operations for recording cache metrics.
	MetricsRecorder = types.MetricsRecorder
	// Logger provides logging operations.
	Logger = types.Logger
	// Publisher ships accumulated metrics to an external system.
	Publisher = metrics.Publisher
)

// NewTracker creates a metrics tracker suitable for passing to WithMetrics.
func NewTracker() *metrics.Tracker {
	return metrics.NewTracker()
}
