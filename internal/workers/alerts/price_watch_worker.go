package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"stockwatch/internal/domain/notification"
	"stockwatch/internal/domain/watch"
	"stockwatch/internal/metrics"
	"stockwatch/internal/workers"
	"stockwatch/pkg/errors"
)

const (
	workerName = "price_watch"
	lockKey    = "price_watch"

	lockReleaseTimeout = 5 * time.Second
)

// WatchSource lists registered watches and removes fired ones
type WatchSource interface {
	List(ctx context.Context) ([]*watch.Watch, error)
	Remove(ctx context.Context, id int64) error
}

// PriceFetcher returns the current price of a stock code, or false when it
// could not be determined.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, stockCode string) (int64, bool)
}

// TriggerPublisher announces fired watches
type TriggerPublisher interface {
	PublishWatchTriggered(ctx context.Context, w *watch.Watch, price int64) error
}

// Locker guards a tick so only one instance polls at a time. The token
// identifies the holder; release only succeeds for the same token.
type Locker interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) (bool, error)
}

// PriceWatchWorker compares every registered watch with the live price and
// notifies the device once the target is reached. A fired watch is removed.
type PriceWatchWorker struct {
	*workers.BaseWorker
	watches   WatchSource
	prices    PriceFetcher
	sender    notification.Sender
	publisher TriggerPublisher
	locker    Locker
}

// NewPriceWatchWorker creates the polling worker. publisher and locker may be nil.
func NewPriceWatchWorker(
	watches WatchSource,
	prices PriceFetcher,
	sender notification.Sender,
	publisher TriggerPublisher,
	locker Locker,
	interval time.Duration,
	enabled bool,
) *PriceWatchWorker {
	return &PriceWatchWorker{
		BaseWorker: workers.NewBaseWorker(workerName, interval, enabled),
		watches:    watches,
		prices:     prices,
		sender:     sender,
		publisher:  publisher,
		locker:     locker,
	}
}

type tickSummary struct {
	checked   int
	skipped   int
	triggered int
	failed    int
}

// Run executes one polling tick
func (w *PriceWatchWorker) Run(ctx context.Context) error {
	tickID := uuid.NewString()
	log := w.Log().With("tick_id", tickID)

	if w.locker != nil {
		acquired, err := w.locker.AcquireLock(ctx, lockKey, tickID, w.Interval())
		switch {
		case err != nil:
			log.Warnw("Tick lock unavailable, running unguarded", "error", err)
		case !acquired:
			log.Infow("Tick is held by another instance, skipping")
			return nil
		default:
			defer w.releaseLock(tickID)
		}
	}

	list, err := w.watches.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list watches")
	}

	var summary tickSummary

	for _, wt := range list {
		if ctx.Err() != nil {
			log.Infow("Tick interrupted", "remaining", len(list)-summary.checked)
			break
		}
		summary.checked++

		price, ok := w.prices.FetchPrice(ctx, wt.StockCode)
		if !ok {
			summary.skipped++
			continue
		}

		if !wt.Reached(price) {
			continue
		}

		if err := w.fire(ctx, wt, price); err != nil {
			summary.failed++
			log.Errorw("Failed to fire watch",
				"id", wt.ID,
				"stock_code", wt.StockCode,
				"error", err,
			)
			continue
		}
		summary.triggered++
	}

	log.Infow("Price watch tick complete",
		"watches", len(list),
		"checked", summary.checked,
		"skipped", summary.skipped,
		"triggered", summary.triggered,
		"failed", summary.failed,
	)
	return nil
}

// fire notifies the device and removes the watch. The watch is kept when
// the notification could not be delivered so the next tick retries it.
func (w *PriceWatchWorker) fire(ctx context.Context, wt *watch.Watch, price int64) error {
	title, body := FormatAlert(wt, price)
	if err := w.sender.Send(ctx, wt.DeviceToken, title, body); err != nil {
		return errors.Wrap(err, "send notification")
	}

	metrics.WatchesTriggered.Inc()

	if err := w.watches.Remove(ctx, wt.ID); err != nil {
		return errors.Wrap(err, "remove fired watch")
	}

	if w.publisher != nil {
		if err := w.publisher.PublishWatchTriggered(ctx, wt, price); err != nil {
			w.Log().Warnw("Failed to publish watch triggered event", "id", wt.ID, "error", err)
		}
	}

	w.Log().Infow("Watch fired",
		"id", wt.ID,
		"stock_code", wt.StockCode,
		"price", price,
		"target_price", wt.TargetPrice,
	)
	return nil
}

func (w *PriceWatchWorker) releaseLock(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
	defer cancel()
	released, err := w.locker.ReleaseLock(ctx, lockKey, token)
	switch {
	case err != nil:
		w.Log().Warnw("Failed to release tick lock", "error", err)
	case !released:
		w.Log().Warnw("Tick lock expired before release", "ttl", w.Interval())
	}
}

// FormatAlert renders the notification title and body for a fired watch
func FormatAlert(wt *watch.Watch, price int64) (title, body string) {
	title = fmt.Sprintf("Target price reached: %s", wt.StockCode)
	body = fmt.Sprintf("%s is now %s (target %s)",
		wt.StockCode,
		humanize.Comma(price),
		humanize.Commaf(wt.TargetPrice),
	)
	return title, body
}
