package server

import (
	"context"
	"sync"

	"github.com/gin-contrib/sse"
	"github.com/google/uuid"
)

const (
	EventStream       = "stream"
	EventSnapshot     = "snapshot"
	EventDisconnected = "disconnected"
	EventHeartbeat    = "heartbeat"
)

// SSEClient holds at most one event the stream has not written yet. A newer event replaces
// it, so producers never wait for a slow connection.
type SSEClient struct {
	ID      uuid.UUID
	Context context.Context

	pendingMutex sync.Mutex
	pending      *sse.Event
	wake         chan struct{}
}

func NewSSEClient(ctx context.Context) *SSEClient {
	return &SSEClient{
		ID:      uuid.New(),
		Context: ctx,
		wake:    make(chan struct{}, 1),
	}
}

type streamTO struct {
	StreamID uuid.UUID `json:"streamId"`
}

type disconnectedTO struct {
	Error string `json:"error"`
}

type heartbeatTO struct {
	Clients int `json:"clients"`
}

// deliver replaces the pending event and wakes the writer. It never blocks.
func (c *SSEClient) deliver(event sse.Event) {
	c.pendingMutex.Lock()
	c.pending = &event
	c.pendingMutex.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Wake signals that an event is pending.
func (c *SSEClient) Wake() <-chan struct{} {
	return c.wake
}

// Take removes the pending event.
func (c *SSEClient) Take() (sse.Event, bool) {
	c.pendingMutex.Lock()
	defer c.pendingMutex.Unlock()
	if c.pending == nil {
		return sse.Event{}, false
	}
	event := *c.pending
	c.pending = nil
	return event, true
}
