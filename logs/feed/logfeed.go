package feed

import (
	"context"
	"sync"

	"github.com/blutspende/logboard/logs/model"
	"github.com/blutspende/logboard/logs/repository"
	"github.com/rs/zerolog/log"
)

type listener struct {
	onSnapshot func([]model.LogRecord)
	onError    func(error)
}

// LogFeed pushes the complete, newest-first log collection to its subscribers on every
// change notification. One reload serves all subscribers. Delivered slices are shared and
// must be treated as read-only. Callbacks are invoked synchronously and must not block.
type LogFeed struct {
	repository repository.LogRepository
	notifier   repository.ChangeNotifier

	refreshMutex sync.Mutex
	mutex        sync.Mutex
	listeners    map[uint64]listener
	nextID       uint64
	snapshot     []model.LogRecord
	hasSnapshot  bool
}

func NewLogFeed(repository repository.LogRepository, notifier repository.ChangeNotifier) *LogFeed {
	return &LogFeed{
		repository: repository,
		notifier:   notifier,
		listeners:  make(map[uint64]listener),
	}
}

// Run listens for change notifications until ctx is done.
func (f *LogFeed) Run(ctx context.Context) error {
	return f.notifier.Listen(ctx, func() {
		f.Refresh(ctx)
	})
}

// Subscribe registers the callbacks and immediately delivers the current collection
// (or the load error). The returned function releases the subscription and is safe to call more than once.
func (f *LogFeed) Subscribe(onSnapshot func([]model.LogRecord), onError func(error)) func() {
	f.refreshMutex.Lock()
	defer f.refreshMutex.Unlock()

	f.mutex.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = listener{onSnapshot: onSnapshot, onError: onError}
	snapshot, hasSnapshot := f.snapshot, f.hasSnapshot
	f.mutex.Unlock()

	log.Debug().Uint64("subscription", id).Msg("New log feed subscription")

	if hasSnapshot {
		onSnapshot(snapshot)
	} else {
		f.reload(context.Background())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mutex.Lock()
			delete(f.listeners, id)
			f.mutex.Unlock()
			log.Debug().Uint64("subscription", id).Msg("Released log feed subscription")
		})
	}
}

// Refresh reloads the collection and pushes it to all subscribers.
func (f *LogFeed) Refresh(ctx context.Context) {
	f.refreshMutex.Lock()
	defer f.refreshMutex.Unlock()
	f.reload(ctx)
}

func (f *LogFeed) SubscriberCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.listeners)
}

// reload must be called with refreshMutex held, so deliveries never go out of order.
func (f *LogFeed) reload(ctx context.Context) {
	records, err := f.repository.LoadLogs(ctx)
	if err != nil {
		storeError := model.NewStoreError("load logs", err)
		f.mutex.Lock()
		f.snapshot, f.hasSnapshot = nil, false
		listeners := f.copyListeners()
		f.mutex.Unlock()

		for _, l := range listeners {
			l.onError(storeError)
		}
		return
	}

	f.mutex.Lock()
	f.snapshot, f.hasSnapshot = records, true
	listeners := f.copyListeners()
	f.mutex.Unlock()

	for _, l := range listeners {
		l.onSnapshot(records)
	}
}

func (f *LogFeed) copyListeners() []listener {
	listeners := make([]listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}
