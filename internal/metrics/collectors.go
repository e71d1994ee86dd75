package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stockwatch/pkg/logger"
)

// WatchCounter is the store query behind the active watches gauge
type WatchCounter interface {
	Count(ctx context.Context) (int, error)
}

// WatchCollector reports the current number of registered watches on every scrape
type WatchCollector struct {
	log     *logger.Logger
	counter WatchCounter

	activeWatches *prometheus.Desc
}

// NewWatchCollector creates a new watch collector
func NewWatchCollector(log *logger.Logger, counter WatchCounter) *WatchCollector {
	return &WatchCollector{
		log:     log,
		counter: counter,
		activeWatches: prometheus.NewDesc(
			"stockwatch_watches_active",
			"Current number of registered watches",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *WatchCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeWatches
}

// Collect implements prometheus.Collector
func (c *WatchCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := c.counter.Count(ctx)
	if err != nil {
		c.log.Warnw("Failed to collect active watches metric", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.activeWatches,
		prometheus.GaugeValue,
		float64(count),
	)
}
