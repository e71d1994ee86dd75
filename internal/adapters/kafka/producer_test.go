package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_WriterPerTopic(t *testing.T) {
	p := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}})

	w1 := p.getWriter(TopicWatchEvents)
	w2 := p.getWriter(TopicWatchEvents)
	other := p.getWriter("other")

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, other)
	assert.Equal(t, 10*time.Second, w1.WriteTimeout)
	assert.Equal(t, TopicWatchEvents, w1.Topic)

	require.NoError(t, p.Close())
}

func TestProducer_PublishRejectsUnencodableEvent(t *testing.T) {
	p := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, WriteTimeout: time.Second})

	err := p.Publish(context.Background(), TopicWatchEvents, "key", make(chan int))

	assert.Error(t, err)
	assert.Empty(t, p.writers, "no writer is created for a failed encode")
}
