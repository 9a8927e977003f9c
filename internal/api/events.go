package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/maelh/locmat/internal/event"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The endpoint sits behind token auth, which the browser cannot
		// attach cross-origin.
		return true
	},
}

const writeTimeout = 10 * time.Second

// EventsHandler streams booking events to connected admin dashboards over
// WebSocket so several users can coordinate bookings live.
type EventsHandler struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewEventsHandler subscribes a broadcast fan-out to the event bus.
func NewEventsHandler(bus *event.Bus) *EventsHandler {
	h := &EventsHandler{conns: make(map[*websocket.Conn]bool)}
	bus.Subscribe(h.broadcast)
	return h
}

// Serve handles GET /api/events/ws.
func (h *EventsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
	log.WithField("remote", conn.RemoteAddr().String()).Info("event feed connected")

	// The feed is one-way. Reading drains control frames and detects the
	// peer going away.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *EventsHandler) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *EventsHandler) broadcast(e event.Event) {
	// Writes happen under the lock because the bus may deliver events
	// concurrently and a websocket connection allows one writer at a time.
	h.mu.Lock()
	var failed []*websocket.Conn
	for c := range h.conns {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteJSON(e); err != nil {
			log.WithError(err).Debug("dropping slow event feed client")
			failed = append(failed, c)
		}
	}
	h.mu.Unlock()

	for _, c := range failed {
		h.drop(c)
	}
}
