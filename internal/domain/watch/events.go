package watch

import "context"

// EventPublisher receives watch lifecycle events. Implementations must not
// block callers for long; publish failures are logged and otherwise ignored.
type EventPublisher interface {
	PublishWatchRegistered(ctx context.Context, w *Watch) error
	PublishWatchUnregistered(ctx context.Context, deviceToken, stockCode string, deleted int64) error
	PublishWatchTriggered(ctx context.Context, w *Watch, price int64) error
}
