package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/veracampus/campushub/pkg/module"
)

// streamEvent is the wire shape pushed to the view: toasts and screen
// change notifications ride the same socket.
type streamEvent struct {
	Topic     string    `json:"topic"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Stream fans bus events out to every connected websocket client.
// A slow client only loses its own events; its buffer is dropped
// oldest-first rather than blocking the bus.
type Stream struct {
	bus    module.EventBus
	logger *zap.Logger

	mu      sync.Mutex
	clients map[int]chan streamEvent
	nextID  int
	closed  bool

	unsubscribe func()
}

const clientBuffer = 64

// NewStream subscribes to the bus and starts fanning events out.
func NewStream(bus module.EventBus, logger *zap.Logger) *Stream {
	s := &Stream{
		bus:     bus,
		logger:  logger,
		clients: make(map[int]chan streamEvent),
	}
	s.unsubscribe = bus.SubscribeAll(s.broadcast)
	return s
}

func (s *Stream) broadcast(_ context.Context, e module.Event) {
	ev := streamEvent{
		Topic:     e.Topic,
		Source:    e.Source,
		Timestamp: e.Timestamp,
		Payload:   e.Payload,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- ev:
		default:
			// Buffer full. Drop the oldest to make room for the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Handle upgrades the request and streams events until the client goes
// away or the stream shuts down.
func (s *Stream) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch, id, ok := s.addClient()
	if !ok {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer s.removeClient(id)

	s.logger.Debug("stream client connected", zap.Int("id", id))
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				s.logger.Debug("stream client write failed", zap.Int("id", id), zap.Error(err))
				return
			}
		}
	}
}

// Close unsubscribes from the bus and disconnects every client.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.mu.Unlock()
	s.unsubscribe()
}

func (s *Stream) addClient() (chan streamEvent, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, false
	}
	id := s.nextID
	s.nextID++
	ch := make(chan streamEvent, clientBuffer)
	s.clients[id] = ch
	return ch, id, true
}

func (s *Stream) removeClient(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.clients[id]; ok {
		close(ch)
		delete(s.clients, id)
	}
}
