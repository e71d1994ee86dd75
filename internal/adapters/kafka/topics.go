package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicWatchEvents carries watch lifecycle events (registered, unregistered, triggered)
	TopicWatchEvents = "stockwatch.watch_events"
)
