package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	a := NewBaseEvent(TypeWatchTriggered, "stockwatch")
	b := NewBaseEvent(TypeWatchTriggered, "stockwatch")

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "watch.triggered", a.Type)
	assert.Equal(t, "stockwatch", a.Source)
	assert.False(t, a.Timestamp.IsZero())
}

func TestWatchTriggeredEvent_FlatJSON(t *testing.T) {
	ev := WatchTriggeredEvent{
		BaseEvent:    NewBaseEvent(TypeWatchTriggered, "stockwatch"),
		WatchID:      7,
		StockCode:    "005930",
		CurrentPrice: 70500,
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "watch.triggered", payload["type"])
	assert.Equal(t, float64(70500), payload["current_price"])
	assert.NotContains(t, payload, "BaseEvent")
}
