package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

type stubCounter struct {
	count int
	err   error
}

func (s stubCounter) Count(ctx context.Context) (int, error) {
	return s.count, s.err
}

func TestWatchCollector_ReportsCount(t *testing.T) {
	collector := NewWatchCollector(logger.NewNop(), stubCounter{count: 3})

	expected := `
# HELP stockwatch_watches_active Current number of registered watches
# TYPE stockwatch_watches_active gauge
stockwatch_watches_active 3
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}

func TestWatchCollector_SkipsOnError(t *testing.T) {
	collector := NewWatchCollector(logger.NewNop(), stubCounter{err: errors.ErrUnavailable})

	assert.Equal(t, 0, testutil.CollectAndCount(collector))
}

func TestRecordNotification(t *testing.T) {
	before := testutil.ToFloat64(Notifications.WithLabelValues("test", "error"))
	RecordNotification("test", errors.ErrUnavailable)
	after := testutil.ToFloat64(Notifications.WithLabelValues("test", "error"))

	assert.Equal(t, before+1, after)
}

var _ prometheus.Collector = (*WatchCollector)(nil)
