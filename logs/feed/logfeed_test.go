package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blutspende/logboard/logs/model"
	"github.com/blutspende/logboard/logs/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logRepositoryMock struct {
	mutex     sync.Mutex
	records   []model.LogRecord
	loadErr   error
	loadCalls int
}

func (m *logRepositoryMock) CreateLog(ctx context.Context, record model.LogRecord) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (m *logRepositoryMock) LoadLogs(ctx context.Context) ([]model.LogRecord, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.loadCalls++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]model.LogRecord(nil), m.records...), nil
}

func (m *logRepositoryMock) DeleteLog(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *logRepositoryMock) DeleteLogs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *logRepositoryMock) set(records []model.LogRecord, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.records, m.loadErr = records, err
}

func (m *logRepositoryMock) calls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.loadCalls
}

type recorder struct {
	mutex     sync.Mutex
	snapshots [][]model.LogRecord
	errs      []error
}

func (r *recorder) onSnapshot(records []model.LogRecord) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.snapshots = append(r.snapshots, records)
}

func (r *recorder) onError(err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) counts() (int, int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.snapshots), len(r.errs)
}

func newRecord(application string) model.LogRecord {
	return model.LogRecord{ID: uuid.New(), Application: application, Level: model.Info, Timestamp: time.Now()}
}

func TestSubscribeDeliversCurrentCollection(t *testing.T) {
	repositoryMock := &logRepositoryMock{records: []model.LogRecord{newRecord("billing")}}
	logFeed := NewLogFeed(repositoryMock, repository.NewLocalNotifier())

	first := &recorder{}
	unsubscribe := logFeed.Subscribe(first.onSnapshot, first.onError)
	defer unsubscribe()

	second := &recorder{}
	unsubscribeSecond := logFeed.Subscribe(second.onSnapshot, second.onError)
	defer unsubscribeSecond()

	snapshots, errs := first.counts()
	assert.Equal(t, 1, snapshots)
	assert.Equal(t, 0, errs)
	snapshots, _ = second.counts()
	assert.Equal(t, 1, snapshots)
	assert.Equal(t, "billing", second.snapshots[0][0].Application)
	assert.Equal(t, 1, repositoryMock.calls(), "second subscriber reuses the cached collection")
	assert.Equal(t, 2, logFeed.SubscriberCount())
}

func TestRefreshPushesToAllSubscribers(t *testing.T) {
	repositoryMock := &logRepositoryMock{}
	logFeed := NewLogFeed(repositoryMock, repository.NewLocalNotifier())

	first, second := &recorder{}, &recorder{}
	defer logFeed.Subscribe(first.onSnapshot, first.onError)()
	defer logFeed.Subscribe(second.onSnapshot, second.onError)()

	repositoryMock.set([]model.LogRecord{newRecord("shop"), newRecord("billing")}, nil)
	logFeed.Refresh(context.Background())

	for _, r := range []*recorder{first, second} {
		snapshots, _ := r.counts()
		require.Equal(t, 2, snapshots)
		assert.Len(t, r.snapshots[1], 2)
	}
}

func TestLoadFailureIsReportedAndNotCached(t *testing.T) {
	repositoryMock := &logRepositoryMock{}
	repositoryMock.set(nil, errors.New("connection refused"))
	logFeed := NewLogFeed(repositoryMock, repository.NewLocalNotifier())

	r := &recorder{}
	defer logFeed.Subscribe(r.onSnapshot, r.onError)()

	snapshots, errs := r.counts()
	assert.Equal(t, 0, snapshots)
	require.Equal(t, 1, errs)
	var storeError *model.StoreError
	assert.ErrorAs(t, r.errs[0], &storeError)

	repositoryMock.set([]model.LogRecord{newRecord("billing")}, nil)
	late := &recorder{}
	defer logFeed.Subscribe(late.onSnapshot, late.onError)()
	snapshots, _ = late.counts()
	assert.Equal(t, 1, snapshots)
	assert.Equal(t, 2, repositoryMock.calls())
}

func TestUnsubscribeStopsDeliveries(t *testing.T) {
	repositoryMock := &logRepositoryMock{}
	logFeed := NewLogFeed(repositoryMock, repository.NewLocalNotifier())

	r := &recorder{}
	unsubscribe := logFeed.Subscribe(r.onSnapshot, r.onError)
	unsubscribe()
	unsubscribe()

	logFeed.Refresh(context.Background())
	snapshots, _ := r.counts()
	assert.Equal(t, 1, snapshots)
	assert.Equal(t, 0, logFeed.SubscriberCount())
}

func TestRunReloadsOnNotification(t *testing.T) {
	repositoryMock := &logRepositoryMock{}
	notifier := repository.NewLocalNotifier()
	logFeed := NewLogFeed(repositoryMock, notifier)

	r := &recorder{}
	defer logFeed.Subscribe(r.onSnapshot, r.onError)()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- logFeed.Run(ctx)
	}()

	repositoryMock.set([]model.LogRecord{newRecord("billing")}, nil)
	assert.Eventually(t, func() bool {
		_ = notifier.Notify(context.Background())
		snapshots, _ := r.counts()
		return snapshots >= 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
