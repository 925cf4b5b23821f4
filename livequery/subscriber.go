package livequery

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/blutspende/logboard/logs/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrSubscriberClosed = errors.New("subscriber closed")

// Source is a push subscription to the full, ordered log collection. onSnapshot receives
// the complete current collection on every change.
type Source interface {
	Subscribe(onSnapshot func([]model.LogRecord), onError func(error)) (unsubscribe func())
}

// RenderFunc receives every new View, on the subscriber's event loop.
type RenderFunc func(View)

type pushed struct {
	generation uint64
	records    []model.LogRecord
	err        error
}

type command struct {
	apply       func(state) state
	resubscribe bool
	done        chan struct{}
}

// Subscriber keeps one standing subscription to a Source and re-derives the View on every
// pushed snapshot and every filter or selection change. All state transitions happen on a
// single event loop goroutine, each one publishes exactly one View.
type Subscriber struct {
	source Source
	render RenderFunc

	pendingMutex sync.Mutex
	pending      *pushed
	generation   uint64
	wake         chan struct{}

	commands  chan command
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	current atomic.Pointer[View]

	// owned by the event loop
	state       state
	unsubscribe func()
}

// NewSubscriber subscribes to the source and starts the event loop.
func NewSubscriber(source Source, filter Filter, render RenderFunc) *Subscriber {
	s := &Subscriber{
		source:   source,
		render:   render,
		wake:     make(chan struct{}, 1),
		commands: make(chan command),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		state:    initialState(filter),
	}
	initialView := s.state.view()
	s.current.Store(&initialView)

	go s.listen()

	return s
}

// View returns the most recently published View.
func (s *Subscriber) View() View {
	return *s.current.Load()
}

func (s *Subscriber) SetFilter(filter Filter) error {
	return s.send(command{apply: func(st state) state { return st.withFilter(filter) }})
}

// ClearFilters resets every dimension to All and leaves selection mode.
func (s *Subscriber) ClearFilters() error {
	return s.send(command{apply: state.withFiltersCleared})
}

func (s *Subscriber) ToggleSelectionMode() error {
	return s.send(command{apply: state.withSelectionModeToggled})
}

func (s *Subscriber) SetSelected(id uuid.UUID, selected bool) error {
	return s.send(command{apply: func(st state) state { return st.withSelection(id, selected) }})
}

func (s *Subscriber) ToggleSelectAll() error {
	return s.send(command{apply: state.withSelectAllToggled})
}

func (s *Subscriber) ClearSelection() error {
	return s.send(command{apply: state.withSelectionCleared})
}

// Resubscribe releases the current subscription and opens a new one. It is the recovery
// path after the subscriber became disconnected.
func (s *Subscriber) Resubscribe() error {
	return s.send(command{apply: state.reconnecting, resubscribe: true})
}

// Close stops the event loop and releases the subscription. It is safe to call more than once.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
}

func (s *Subscriber) send(cmd command) error {
	cmd.done = make(chan struct{})
	select {
	case s.commands <- cmd:
		<-cmd.done
		return nil
	case <-s.quit:
		return ErrSubscriberClosed
	}
}

func (s *Subscriber) listen() {
	defer close(s.stopped)
	defer func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	}()

	s.publish()
	s.subscribe()

	for {
		select {
		case <-s.quit:
			return
		case <-s.wake:
			p := s.takePending()
			if p == nil {
				continue
			}
			if p.err != nil {
				log.Warn().Err(p.err).Msg("Live log subscription disconnected")
				s.state = s.state.withError(p.err)
			} else {
				s.state = s.state.withSnapshot(p.records)
			}
			s.publish()
		case cmd := <-s.commands:
			if cmd.resubscribe {
				s.unsubscribe()
				s.unsubscribe = nil
				s.nextGeneration()
			}
			s.state = cmd.apply(s.state)
			s.publish()
			if cmd.resubscribe {
				s.subscribe()
			}
			close(cmd.done)
		}
	}
}

func (s *Subscriber) subscribe() {
	s.pendingMutex.Lock()
	generation := s.generation
	s.pendingMutex.Unlock()
	s.unsubscribe = s.source.Subscribe(
		func(records []model.LogRecord) {
			s.push(&pushed{generation: generation, records: records})
		},
		func(err error) {
			s.push(&pushed{generation: generation, err: err})
		},
	)
}

// push never blocks: only the latest push is kept, every snapshot is a complete collection.
// Pushes of a released subscription are dropped.
func (s *Subscriber) push(p *pushed) {
	s.pendingMutex.Lock()
	if p.generation != s.generation {
		s.pendingMutex.Unlock()
		return
	}
	s.pending = p
	s.pendingMutex.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscriber) nextGeneration() {
	s.pendingMutex.Lock()
	s.generation++
	s.pending = nil
	s.pendingMutex.Unlock()
}

func (s *Subscriber) takePending() *pushed {
	s.pendingMutex.Lock()
	defer s.pendingMutex.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

func (s *Subscriber) publish() {
	view := s.state.view()
	s.current.Store(&view)
	if s.render != nil {
		s.render(view)
	}
}
