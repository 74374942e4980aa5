// Package debugserver exposes a read-only observability surface over the
// engine: an HTTP health/metrics/status API plus a websocket feed that
// mirrors every events.Record out to connected dashboards. Nothing it
// receives ever flows back into the engine or store — it is a window, not
// a control surface.
package debugserver

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client is one connected dashboard's websocket.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// hub serializes client registration and fans broadcasts out to every
// connected client without letting a slow reader block the others.
type hub struct {
	mu         sync.RWMutex
	clients    map[string]*client
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	log        *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		log:        log,
	}
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
			h.log.Debug("debug client registered", zap.String("client_id", c.id), zap.Int("total", len(h.clients)))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			h.mu.Unlock()
			h.log.Debug("debug client unregistered", zap.String("client_id", c.id), zap.Int("total", len(h.clients)))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.Warn("debug client send buffer full, dropping frame", zap.String("client_id", c.id))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish enqueues a frame for broadcast to every connected dashboard. It
// never blocks: a full broadcast buffer drops the frame rather than stall
// the caller, the same never-block contract telemetry.Pump gives its sinks.
func (h *hub) Publish(frame []byte) {
	select {
	case h.broadcast <- frame:
	default:
		h.log.Warn("debug broadcast buffer full, dropping frame")
	}
}

func (h *hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
