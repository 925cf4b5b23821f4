package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/blutspende/logboard/livequery"
	"github.com/blutspende/logboard/logs/model"
	"github.com/blutspende/logboard/metrics"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const heartbeatInterval = 25 * time.Second

type logStreamClient struct {
	sse        *SSEClient
	subscriber *livequery.Subscriber
}

// LogStreamSSEServer serves one live query per connected dashboard. Every client gets its own
// subscriber, so filters and selections are never shared between dashboards.
type LogStreamSSEServer struct {
	source            livequery.Source
	NewClientsChan    chan *logStreamClient
	ClosedClientsChan chan *logStreamClient
	clientsMutex      sync.RWMutex
	clients           map[uuid.UUID]*logStreamClient
}

func NewLogStreamSSEServer(source livequery.Source) *LogStreamSSEServer {
	server := &LogStreamSSEServer{
		source:            source,
		NewClientsChan:    make(chan *logStreamClient),
		ClosedClientsChan: make(chan *logStreamClient),
		clients:           make(map[uuid.UUID]*logStreamClient),
	}

	go server.listen()

	return server
}

// Subscriber returns the live query behind an open stream.
func (e *LogStreamSSEServer) Subscriber(streamID uuid.UUID) (*livequery.Subscriber, bool) {
	e.clientsMutex.RLock()
	defer e.clientsMutex.RUnlock()
	client, ok := e.clients[streamID]
	if !ok {
		return nil, false
	}
	return client.subscriber, true
}

func (e *LogStreamSSEServer) ClientCount() int {
	e.clientsMutex.RLock()
	defer e.clientsMutex.RUnlock()
	return len(e.clients)
}

func (e *LogStreamSSEServer) ServeHTTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter livequery.Filter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "messageKey": "invalidRequestParameter"})
			return
		}
		filter = filter.Normalized()
		if filter.Level != livequery.All {
			if _, ok := model.ParseLevel(filter.Level); !ok {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid level filter: " + filter.Level, "messageKey": "invalidRequestParameter"})
				return
			}
		}

		ctx, cancel := context.WithCancel(c.Request.Context())
		client := &logStreamClient{
			sse: NewSSEClient(ctx),
		}
		client.subscriber = livequery.NewSubscriber(e.source, filter, client.render)

		e.NewClientsChan <- client

		defer func() {
			e.ClosedClientsChan <- client
		}()
		defer client.subscriber.Close()
		defer cancel()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.Render(-1, sse.Event{
			Event: EventStream,
			Data:  streamTO{StreamID: client.sse.ID},
		})

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case <-client.sse.Wake():
				if event, ok := client.sse.Take(); ok {
					c.Render(-1, event)
				}
				return true
			case <-heartbeat.C:
				c.Render(-1, sse.Event{
					Event: EventHeartbeat,
					Data:  heartbeatTO{Clients: e.ClientCount()},
				})
				return true
			}
		})
	}
}

// render runs on the subscriber's event loop and must not block. Only the latest view is
// written when the connection falls behind. A disconnected view is sent as its own event, the
// stream stays open so the dashboard can request a resubscription.
func (c *logStreamClient) render(view livequery.View) {
	if view.Status == livequery.StatusDisconnected {
		c.sse.deliver(sse.Event{
			Event: EventDisconnected,
			Data:  disconnectedTO{Error: view.Error},
		})
		return
	}
	c.sse.deliver(sse.Event{
		Event: EventSnapshot,
		Data:  view,
	})
}

func (e *LogStreamSSEServer) listen() {
	for {
		select {
		case client := <-e.NewClientsChan:
			e.clientsMutex.Lock()
			e.clients[client.sse.ID] = client
			count := len(e.clients)
			e.clientsMutex.Unlock()
			metrics.StreamClientConnected()
			log.Debug().Str("stream", client.sse.ID.String()).Msgf("Client added... %d registered clients", count)
		case client := <-e.ClosedClientsChan:
			e.clientsMutex.Lock()
			delete(e.clients, client.sse.ID)
			count := len(e.clients)
			e.clientsMutex.Unlock()
			metrics.StreamClientDisconnected()
			log.Debug().Str("stream", client.sse.ID.String()).Msgf("Removed client... %d registered clients", count)
		}
	}
}
