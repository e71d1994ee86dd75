package events

import (
	"context"
	"time"

	"stockwatch/internal/domain/watch"
	"stockwatch/pkg/errors"
)

// Compile-time check
var _ watch.EventPublisher = (*Publisher)(nil)

const publishTimeout = 5 * time.Second

// Producer is the subset of the Kafka producer used for publishing
type Producer interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Publisher publishes watch lifecycle events keyed by device token.
// A nil Publisher, or one without a producer, drops events silently.
type Publisher struct {
	producer Producer
	topic    string
	source   string
}

// NewPublisher creates a new event publisher
func NewPublisher(producer Producer, topic, source string) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		source:   source,
	}
}

// PublishWatchRegistered publishes a watch registered event
func (p *Publisher) PublishWatchRegistered(ctx context.Context, w *watch.Watch) error {
	return p.publish(ctx, w.DeviceToken, WatchRegisteredEvent{
		BaseEvent:   NewBaseEvent(TypeWatchRegistered, p.sourceName()),
		WatchID:     w.ID,
		DeviceToken: w.DeviceToken,
		StockCode:   w.StockCode,
		TargetPrice: w.TargetPrice,
	})
}

// PublishWatchUnregistered publishes a watch unregistered event
func (p *Publisher) PublishWatchUnregistered(ctx context.Context, deviceToken, stockCode string, deleted int64) error {
	return p.publish(ctx, deviceToken, WatchUnregisteredEvent{
		BaseEvent:   NewBaseEvent(TypeWatchUnregistered, p.sourceName()),
		DeviceToken: deviceToken,
		StockCode:   stockCode,
		Deleted:     deleted,
	})
}

// PublishWatchTriggered publishes a watch triggered event
func (p *Publisher) PublishWatchTriggered(ctx context.Context, w *watch.Watch, price int64) error {
	return p.publish(ctx, w.DeviceToken, WatchTriggeredEvent{
		BaseEvent:    NewBaseEvent(TypeWatchTriggered, p.sourceName()),
		WatchID:      w.ID,
		DeviceToken:  w.DeviceToken,
		StockCode:    w.StockCode,
		TargetPrice:  w.TargetPrice,
		CurrentPrice: price,
	})
}

func (p *Publisher) sourceName() string {
	if p.source == "" {
		return "stockwatch"
	}
	return p.source
}

func (p *Publisher) publish(ctx context.Context, key string, event interface{}) error {
	if p == nil || p.producer == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, p.topic, key, event); err != nil {
		return errors.Wrap(err, "publish watch event")
	}
	return nil
}
