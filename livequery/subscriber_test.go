package livequery_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blutspende/logboard/livequery"
	"github.com/blutspende/logboard/logs/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceMock struct {
	mutex          sync.Mutex
	onSnapshot     []func([]model.LogRecord)
	onError        []func(error)
	unsubscribed   []bool
	initialRecords []model.LogRecord
}

func (m *sourceMock) Subscribe(onSnapshot func([]model.LogRecord), onError func(error)) func() {
	m.mutex.Lock()
	index := len(m.onSnapshot)
	m.onSnapshot = append(m.onSnapshot, onSnapshot)
	m.onError = append(m.onError, onError)
	m.unsubscribed = append(m.unsubscribed, false)
	initial := m.initialRecords
	m.mutex.Unlock()

	if initial != nil {
		onSnapshot(initial)
	}

	return func() {
		m.mutex.Lock()
		m.unsubscribed[index] = true
		m.mutex.Unlock()
	}
}

func (m *sourceMock) subscriptionCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.onSnapshot)
}

func (m *sourceMock) isUnsubscribed(index int) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.unsubscribed[index]
}

func (m *sourceMock) pushSnapshot(index int, records []model.LogRecord) {
	m.mutex.Lock()
	callback := m.onSnapshot[index]
	m.mutex.Unlock()
	callback(records)
}

func (m *sourceMock) pushError(index int, err error) {
	m.mutex.Lock()
	callback := m.onError[index]
	m.mutex.Unlock()
	callback(err)
}

type renderCounter struct {
	count atomic.Int64
}

func (r *renderCounter) render(livequery.View) {
	r.count.Add(1)
}

func waitForStatus(t *testing.T, subscriber *livequery.Subscriber, status livequery.Status) {
	require.Eventually(t, func() bool {
		return subscriber.View().Status == status
	}, time.Second, 5*time.Millisecond)
}

func TestSubscriberConnectsOnFirstSnapshot(t *testing.T) {
	source := &sourceMock{}
	subscriber := livequery.NewSubscriber(source, livequery.AllFilter(), nil)
	defer subscriber.Close()

	assert.Equal(t, livequery.StatusConnecting, subscriber.View().Status)
	require.Eventually(t, func() bool { return source.subscriptionCount() == 1 }, time.Second, 5*time.Millisecond)

	records := testRecords()
	source.pushSnapshot(0, records)
	waitForStatus(t, subscriber, livequery.StatusConnected)

	view := subscriber.View()
	assert.Equal(t, len(records), len(view.Logs))
	assert.Equal(t, len(records), view.TotalCount)
	assert.Equal(t, []string{"app1", "app2"}, view.Applications)
	assert.Equal(t, 2, view.LogCounts[model.Error])
	assert.Empty(t, view.Error)
}

func TestSubscriberFilterChangeRendersOnceWithoutResubscribing(t *testing.T) {
	source := &sourceMock{initialRecords: testRecords()}
	counter := &renderCounter{}
	subscriber := livequery.NewSubscriber(source, livequery.AllFilter(), counter.render)
	defer subscriber.Close()

	waitForStatus(t, subscriber, livequery.StatusConnected)
	rendersBefore := counter.count.Load()

	require.NoError(t, subscriber.SetFilter(livequery.Filter{Level: "error"}))

	assert.Equal(t, rendersBefore+1, counter.count.Load())
	assert.Equal(t, 1, source.subscriptionCount())

	view := subscriber.View()
	assert.Equal(t, 2, len(view.Logs))
	assert.Equal(t, 5, view.TotalCount)
	assert.Equal(t, 2, view.LogCounts[model.Error])
	assert.Equal(t, 0, view.LogCounts[model.Info])
	assert.Equal(t, "error", view.Filter.Level)
	assert.Equal(t, livequery.All, view.Filter.Application)

	require.NoError(t, subscriber.ClearFilters())
	assert.Equal(t, 5, len(subscriber.View().Logs))
	assert.Equal(t, rendersBefore+2, counter.count.Load())
}

func TestSubscriberSnapshotReappliesFilter(t *testing.T) {
	source := &sourceMock{}
	subscriber := livequery.NewSubscriber(source, livequery.Filter{Application: "app2"}, nil)
	defer subscriber.Close()

	require.Eventually(t, func() bool { return source.subscriptionCount() == 1 }, time.Second, 5*time.Millisecond)
	source.pushSnapshot(0, testRecords())
	waitForStatus(t, subscriber, livequery.StatusConnected)
	assert.Equal(t, 2, len(subscriber.View().Logs))

	extended := append(testRecords(), record("dave", "app2", "db", model.Info))
	source.pushSnapshot(0, extended)
	require.Eventually(t, func() bool { return subscriber.View().TotalCount == 6 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, len(subscriber.View().Logs))
}

func TestSubscriberErrorDisconnectsAndClearsRecords(t *testing.T) {
	source := &sourceMock{initialRecords: testRecords()}
	subscriber := livequery.NewSubscriber(source, livequery.AllFilter(), nil)
	defer subscriber.Close()

	waitForStatus(t, subscriber, livequery.StatusConnected)

	source.pushError(0, model.NewStoreError("load logs", errors.New("connection refused")))
	waitForStatus(t, subscriber, livequery.StatusDisconnected)

	view := subscriber.View()
	assert.Contains(t, view.Error, "connection refused")
	assert.Empty(t, view.Logs)
	assert.Equal(t, 0, view.TotalCount)
}

func TestSubscriberResubscribeReleasesOldSubscription(t *testing.T) {
	source := &sourceMock{}
	subscriber := livequery.NewSubscriber(source, livequery.AllFilter(), nil)
	defer subscriber.Close()

	require.Eventually(t, func() bool { return source.subscriptionCount() == 1 }, time.Second, 5*time.Millisecond)
	source.pushError(0, errors.New("gone"))
	waitForStatus(t, subscriber, livequery.StatusDisconnected)

	require.NoError(t, subscriber.Resubscribe())

	assert.Equal(t, 2, source.subscriptionCount())
	assert.True(t, source.isUnsubscribed(0))
	assert.Equal(t, livequery.StatusConnecting, subscriber.View().Status)

	// pushes of the released subscription are ignored
	source.pushSnapshot(0, testRecords())
	source.pushSnapshot(1, testRecords()[:2])
	require.Eventually(t, func() bool {
		view := subscriber.View()
		return view.Status == livequery.StatusConnected && view.TotalCount == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSubscriberSelection(t *testing.T) {
	records := testRecords()
	source := &sourceMock{initialRecords: records}
	subscriber := livequery.NewSubscriber(source, livequery.AllFilter(), nil)
	defer subscriber.Close()

	waitForStatus(t, subscriber, livequery.StatusConnected)

	// ignored outside selection mode
	require.NoError(t, subscriber.SetSelected(records[0].ID, true))
	assert.Empty(t, subscriber.View().Selected)

	require.NoError(t, subscriber.ToggleSelectionMode())
	require.NoError(t, subscriber.SetSelected(records[0].ID, true))
	require.NoError(t, subscriber.SetSelected(records[1].ID, true))
	assert.Equal(t, 2, len(subscriber.View().Selected))

	require.NoError(t, subscriber.SetSelected(records[1].ID, false))
	assert.Equal(t, 1, len(subscriber.View().Selected))

	require.NoError(t, subscriber.ToggleSelectAll())
	assert.Equal(t, len(records), len(subscriber.View().Selected))
	require.NoError(t, subscriber.ToggleSelectAll())
	assert.Empty(t, subscriber.View().Selected)

	require.NoError(t, subscriber.ToggleSelectAll())
	require.NoError(t, subscriber.ClearSelection())
	assert.Empty(t, subscriber.View().Selected)
	assert.True(t, subscriber.View().SelectionMode)

	require.NoError(t, subscriber.SetSelected(records[0].ID, true))
	require.NoError(t, subscriber.ToggleSelectionMode())
	assert.Empty(t, subscriber.View().Selected)
	assert.False(t, subscriber.View().SelectionMode)
}

func TestSubscriberPrunesSelectionOnSnapshot(t *testing.T) {
	records := testRecords()
	source := &sourceMock{initialRecords: records}
	subscriber := livequery.NewSubscriber(source, livequery.AllFilter(), nil)
	defer subscriber.Close()

	waitForStatus(t, subscriber, livequery.StatusConnected)
	require.NoError(t, subscriber.ToggleSelectionMode())
	require.NoError(t, subscriber.SetSelected(records[0].ID, true))
	require.NoError(t, subscriber.SetSelected(records[1].ID, true))

	source.pushSnapshot(0, records[1:])
	require.Eventually(t, func() bool { return subscriber.View().TotalCount == len(records)-1 }, time.Second, 5*time.Millisecond)

	view := subscriber.View()
	require.Equal(t, 1, len(view.Selected))
	assert.Equal(t, records[1].ID, view.Selected[0])

	// a filter that hides the selected record prunes it as well
	require.NoError(t, subscriber.SetFilter(livequery.Filter{Level: "debug"}))
	assert.Empty(t, subscriber.View().Selected)
}

func TestSubscriberCloseReleasesSubscription(t *testing.T) {
	source := &sourceMock{initialRecords: testRecords()}
	subscriber := livequery.NewSubscriber(source, livequery.AllFilter(), nil)

	waitForStatus(t, subscriber, livequery.StatusConnected)
	subscriber.Close()
	subscriber.Close()

	assert.True(t, source.isUnsubscribed(0))
	assert.ErrorIs(t, subscriber.SetFilter(livequery.AllFilter()), livequery.ErrSubscriberClosed)
	assert.ErrorIs(t, subscriber.Resubscribe(), livequery.ErrSubscriberClosed)
}
