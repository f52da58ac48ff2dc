package tierkv

import (
	"github.com/calebmoss/tierkv/internal/cache"
)

// ServiceOptions holds construction-time overrides for the cache service.
type ServiceOptions = cache.ServiceOptions

// ServiceOption customizes service construction.
type ServiceOption func(*ServiceOptions)

// WithLogger sets the structured logger used by the service and backends.
func WithLogger(logger Logger) ServiceOption {
	return func(o *ServiceOptions) {
		o.Logger = logger
	}
}

// WithMetrics sets the metrics recorder receiving per-operation events.
func WithMetrics(metrics MetricsRecorder) ServiceOption {
	return func(o *ServiceOptions) {
		o.Metrics = metrics
	}
}

// WithSerializer replaces the default JSON serializer.
func WithSerializer(serializer Serializer) ServiceOption {
	return func(o *ServiceOptions) {
		o.Serializer = serializer
	}
}

// WithBackends overrides backend selection entirely. fallback may be nil.
func WithBackends(primary, fallback Backend) ServiceOption {
	return func(o *ServiceOptions) {
		o.Primary = primary
		o.Fallback = fallback
	}
}
