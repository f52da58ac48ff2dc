package tierkv

import (
	"context"
	"time"

	"github.com/calebmoss/tierkv/internal/config"
	"github.com/calebmoss/tierkv/internal/metrics"
	"github.com/calebmoss/tierkv/internal/metrics/datadog"
)

// NewDataDogPublisher creates a StatsD publisher from the configuration's
// DataDog section. When DataDog is disabled it returns a no-op publisher, so
// callers can wire it unconditionally.
func NewDataDogPublisher(cfg *config.Config) (Publisher, error) {
	return datadog.NewPublisher(&cfg.Metrics.DataDog, nil)
}

// StartMetricsPublishing ships tracker snapshots to the publisher at the
// given interval until the returned stop function is called. A typical
// setup pairs it with WithMetrics:
//
//	tracker := tierkv.NewTracker()
//	c, _ := tierkv.NewFromConfig(cfg, tierkv.WithMetrics(tracker))
//	pub, _ := tierkv.NewDataDogPublisher(cfg)
//	stop := tierkv.StartMetricsPublishing(ctx, tracker, pub, cfg.Metrics.PublishInterval)
//	defer stop()
func StartMetricsPublishing(ctx context.Context, tracker *metrics.Tracker, pub Publisher, interval time.Duration) func() {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	bg := metrics.NewBackgroundPublisher(pub, interval, tracker.Snapshot, nil)
	bg.Start(ctx)
	return bg.Stop
}
