package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// ChangeNotifier signals that the log collection changed. Notifications carry no
// payload, listeners reload the collection.
type ChangeNotifier interface {
	Notify(ctx context.Context) error
	// Listen blocks until ctx is done and calls onChange for every received notification.
	Listen(ctx context.Context, onChange func()) error
}

type localNotifier struct {
	mutex     sync.Mutex
	listeners map[chan struct{}]struct{}
}

// NewLocalNotifier delivers notifications inside the process only.
func NewLocalNotifier() ChangeNotifier {
	return &localNotifier{
		listeners: make(map[chan struct{}]struct{}),
	}
}

func (n *localNotifier) Notify(ctx context.Context) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	for listener := range n.listeners {
		select {
		case listener <- struct{}{}:
		default:
			// a notification is already pending for this listener
		}
	}
	return nil
}

func (n *localNotifier) Listen(ctx context.Context, onChange func()) error {
	listener := make(chan struct{}, 1)

	n.mutex.Lock()
	n.listeners[listener] = struct{}{}
	n.mutex.Unlock()

	defer func() {
		n.mutex.Lock()
		delete(n.listeners, listener)
		n.mutex.Unlock()
	}()

	log.Debug().Msg("Listening for local log changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-listener:
			onChange()
		}
	}
}
