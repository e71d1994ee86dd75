package bootstrap

import (
	"stockwatch/internal/workers"
	"stockwatch/internal/workers/alerts"
)

func provideScheduler() *workers.Scheduler {
	return workers.NewScheduler()
}

// providePriceWatchWorker builds the polling loop. The Redis tick lock is
// only attached when Redis is configured.
func providePriceWatchWorker(c *Container) *alerts.PriceWatchWorker {
	var locker alerts.Locker
	if c.Redis != nil {
		locker = c.Redis
	}

	w := alerts.NewPriceWatchWorker(
		c.Services.Watch,
		c.Adapters.PriceScraper,
		c.Adapters.Notifier,
		c.Adapters.EventPublisher,
		locker,
		c.Config.Workers.PriceWatchInterval,
		c.Config.Workers.PriceWatchEnabled,
	)

	c.Log.Infow("Price watch worker configured",
		"interval", c.Config.Workers.PriceWatchInterval,
		"enabled", c.Config.Workers.PriceWatchEnabled,
		"tick_lock", locker != nil,
	)
	return w
}
