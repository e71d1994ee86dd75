package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeWatchRegistered   = "watch.registered"
	TypeWatchUnregistered = "watch.unregistered"
	TypeWatchTriggered    = "watch.triggered"
)

// BaseEvent carries the envelope common to all events
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a new base event with defaults
func NewBaseEvent(eventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Version:   "1.0",
	}
}

// WatchRegisteredEvent is published after a watch is stored
type WatchRegisteredEvent struct {
	BaseEvent
	WatchID     int64   `json:"watch_id"`
	DeviceToken string  `json:"device_token"`
	StockCode   string  `json:"stock_code"`
	TargetPrice float64 `json:"target_price"`
}

// WatchUnregisteredEvent is published after a user unregisters a pair
type WatchUnregisteredEvent struct {
	BaseEvent
	DeviceToken string `json:"device_token"`
	StockCode   string `json:"stock_code"`
	Deleted     int64  `json:"deleted"`
}

// WatchTriggeredEvent is published after a notification was sent and the watch removed
type WatchTriggeredEvent struct {
	BaseEvent
	WatchID      int64   `json:"watch_id"`
	DeviceToken  string  `json:"device_token"`
	StockCode    string  `json:"stock_code"`
	TargetPrice  float64 `json:"target_price"`
	CurrentPrice int64   `json:"current_price"`
}
