package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Moderation event names broadcast over the websocket hub
const (
	EventReportFiled    = "report_filed"
	EventReportResolved = "report_resolved"
)

// ModerationEvent is the wire shape of a hub broadcast
type ModerationEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub fans moderation events out to connected websocket clients so moderator
// views can refresh without polling
type Hub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and registers the client
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
	zap.S().Debugw("moderation client connected", "remote", conn.RemoteAddr().String())

	go h.readLoop(conn)
}

// readLoop discards inbound frames until the client goes away
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
	zap.S().Debugw("moderation client disconnected", "remote", conn.RemoteAddr().String())
}

// Broadcast sends an event to every connected client. A nil hub is a no-op so
// handlers can run without one in tests.
func (h *Hub) Broadcast(event string, payload interface{}) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(ModerationEvent{Event: event, Payload: payload}); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}
