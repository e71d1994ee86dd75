package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/domain/watch"
	"stockwatch/pkg/errors"
)

type memoryWatches struct {
	mu      sync.Mutex
	watches []*watch.Watch
	listErr error
	listed  int
}

func (m *memoryWatches) List(ctx context.Context) ([]*watch.Watch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*watch.Watch, len(m.watches))
	copy(out, m.watches)
	return out, nil
}

func (m *memoryWatches) Remove(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.watches {
		if w.ID == id {
			m.watches = append(m.watches[:i], m.watches[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryWatches) ids() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.watches))
	for _, w := range m.watches {
		ids = append(ids, w.ID)
	}
	return ids
}

type staticPrices struct {
	prices  map[string]int64
	fetches map[string]int
}

func (s *staticPrices) FetchPrice(ctx context.Context, code string) (int64, bool) {
	if s.fetches == nil {
		s.fetches = make(map[string]int)
	}
	s.fetches[code]++
	p, ok := s.prices[code]
	return p, ok
}

type sentNotification struct {
	deviceToken, title, body string
}

type recordingSender struct {
	sent    []sentNotification
	failFor map[string]bool
}

func (r *recordingSender) Send(ctx context.Context, deviceToken, title, body string) error {
	if r.failFor[deviceToken] {
		return errors.ErrNotifierUnavailable
	}
	r.sent = append(r.sent, sentNotification{deviceToken, title, body})
	return nil
}

type recordingPublisher struct {
	triggered []int64
}

func (r *recordingPublisher) PublishWatchTriggered(ctx context.Context, w *watch.Watch, price int64) error {
	r.triggered = append(r.triggered, w.ID)
	return nil
}

type fakeLocker struct {
	held         bool
	err          error
	acquired     int
	released     int
	ttl          time.Duration
	acquireToken string
	releaseToken string
}

func (f *fakeLocker) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	f.ttl = ttl
	f.acquireToken = token
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, key, token string) (bool, error) {
	f.released++
	f.releaseToken = token
	return true, nil
}

func newWorker(watches *memoryWatches, prices *staticPrices, sender *recordingSender, pub *recordingPublisher, locker Locker) *PriceWatchWorker {
	var publisher TriggerPublisher
	if pub != nil {
		publisher = pub
	}
	return NewPriceWatchWorker(watches, prices, sender, publisher, locker, 5*time.Minute, true)
}

func TestPriceWatchWorker_FiresWhenTargetReached(t *testing.T) {
	watches := &memoryWatches{watches: []*watch.Watch{
		{ID: 1, DeviceToken: "device-a", StockCode: "005930", TargetPrice: 70000},
	}}
	prices := &staticPrices{prices: map[string]int64{"005930": 70500}}
	sender := &recordingSender{}
	pub := &recordingPublisher{}

	err := newWorker(watches, prices, sender, pub, nil).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "device-a", sender.sent[0].deviceToken)
	assert.Contains(t, sender.sent[0].title, "005930")
	assert.Contains(t, sender.sent[0].body, "70,500")
	assert.Contains(t, sender.sent[0].body, "70,000")
	assert.Empty(t, watches.ids())
	assert.Equal(t, []int64{1}, pub.triggered)
}

func TestPriceWatchWorker_FiresAtExactTarget(t *testing.T) {
	watches := &memoryWatches{watches: []*watch.Watch{
		{ID: 1, DeviceToken: "device-a", StockCode: "005930", TargetPrice: 70000},
	}}
	prices := &staticPrices{prices: map[string]int64{"005930": 70000}}
	sender := &recordingSender{}

	require.NoError(t, newWorker(watches, prices, sender, nil, nil).Run(context.Background()))

	assert.Len(t, sender.sent, 1)
	assert.Empty(t, watches.ids())
}

func TestPriceWatchWorker_BelowTargetKeepsWatch(t *testing.T) {
	watches := &memoryWatches{watches: []*watch.Watch{
		{ID: 1, DeviceToken: "device-a", StockCode: "005930", TargetPrice: 70000},
	}}
	prices := &staticPrices{prices: map[string]int64{"005930": 69000}}
	sender := &recordingSender{}

	require.NoError(t, newWorker(watches, prices, sender, nil, nil).Run(context.Background()))

	assert.Empty(t, sender.sent)
	assert.Equal(t, []int64{1}, watches.ids())
}

func TestPriceWatchWorker_AbsentPriceSkips(t *testing.T) {
	watches := &memoryWatches{watches: []*watch.Watch{
		{ID: 1, DeviceToken: "device-a", StockCode: "999999", TargetPrice: 1},
		{ID: 2, DeviceToken: "device-b", StockCode: "005930", TargetPrice: 100},
	}}
	prices := &staticPrices{prices: map[string]int64{"005930": 200}}
	sender := &recordingSender{}

	require.NoError(t, newWorker(watches, prices, sender, nil, nil).Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "device-b", sender.sent[0].deviceToken)
	assert.Equal(t, []int64{1}, watches.ids())
}

func TestPriceWatchWorker_SendFailureIsIsolated(t *testing.T) {
	watches := &memoryWatches{watches: []*watch.Watch{
		{ID: 1, DeviceToken: "broken", StockCode: "005930", TargetPrice: 70000},
		{ID: 2, DeviceToken: "device-b", StockCode: "005930", TargetPrice: 60000},
	}}
	prices := &staticPrices{prices: map[string]int64{"005930": 70500}}
	sender := &recordingSender{failFor: map[string]bool{"broken": true}}

	require.NoError(t, newWorker(watches, prices, sender, nil, nil).Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "device-b", sender.sent[0].deviceToken)
	assert.Equal(t, []int64{1}, watches.ids(), "failed watch is retried next tick")
	assert.Equal(t, 2, prices.fetches["005930"], "every watch fetches its own price")
}

func TestPriceWatchWorker_StoreErrorFailsTick(t *testing.T) {
	watches := &memoryWatches{listErr: errors.ErrUnavailable}
	sender := &recordingSender{}

	err := newWorker(watches, &staticPrices{}, sender, nil, nil).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
	assert.Empty(t, sender.sent)
}

func TestPriceWatchWorker_HeldLockSkipsTick(t *testing.T) {
	watches := &memoryWatches{watches: []*watch.Watch{
		{ID: 1, DeviceToken: "device-a", StockCode: "005930", TargetPrice: 1},
	}}
	locker := &fakeLocker{held: true}

	err := newWorker(watches, &staticPrices{}, &recordingSender{}, nil, locker).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, watches.listed)
	assert.Zero(t, locker.released)
}

func TestPriceWatchWorker_LockIsReleased(t *testing.T) {
	watches := &memoryWatches{}
	locker := &fakeLocker{}

	require.NoError(t, newWorker(watches, &staticPrices{}, &recordingSender{}, nil, locker).Run(context.Background()))

	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
	assert.Equal(t, 5*time.Minute, locker.ttl)
	assert.NotEmpty(t, locker.acquireToken)
	assert.Equal(t, locker.acquireToken, locker.releaseToken, "release uses the token of the tick that acquired")
}

func TestPriceWatchWorker_LockErrorRunsUnguarded(t *testing.T) {
	watches := &memoryWatches{}
	locker := &fakeLocker{err: errors.ErrUnavailable}

	require.NoError(t, newWorker(watches, &staticPrices{}, &recordingSender{}, nil, locker).Run(context.Background()))

	assert.Equal(t, 1, watches.listed)
	assert.Zero(t, locker.released)
}

func TestPriceWatchWorker_CancelledContextStopsEarly(t *testing.T) {
	watches := &memoryWatches{watches: []*watch.Watch{
		{ID: 1, DeviceToken: "device-a", StockCode: "005930", TargetPrice: 1},
	}}
	prices := &staticPrices{prices: map[string]int64{"005930": 10}}
	sender := &recordingSender{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, newWorker(watches, prices, sender, nil, nil).Run(ctx))
	assert.Empty(t, sender.sent)
	assert.Equal(t, []int64{1}, watches.ids())
}

func TestFormatAlert(t *testing.T) {
	title, body := FormatAlert(&watch.Watch{StockCode: "005930", TargetPrice: 70000}, 70500)

	assert.Equal(t, "Target price reached: 005930", title)
	assert.Equal(t, "005930 is now 70,500 (target 70,000)", body)

	_, body = FormatAlert(&watch.Watch{StockCode: "000660", TargetPrice: 1234.5}, 1300)
	assert.Equal(t, "000660 is now 1,300 (target 1,234.5)", body)
}
