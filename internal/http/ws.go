package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"riel/internal/events"
)

// wsHub fans DataChanged signals out to connected browser sessions.
// Each client receives the signal as JSON and refetches whatever
// partials it renders; the hub never pushes data.
type wsHub struct {
	bus      *events.Bus
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	stopped bool
}

func newWSHub(bus *events.Bus) *wsHub {
	return &wsHub{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin app; the CSP already restricts connect-src.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// handleWebSocket upgrades the connection and streams change signals
// until the client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		http.Error(w, "live updates unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "WebSocket upgrade failed", "error", err)
		return
	}

	if !s.hub.add(conn) {
		conn.Close()
		return
	}
	defer s.hub.remove(conn)

	ch, cancel := s.bus.Subscribe()
	defer cancel()

	// Read pump: drains control frames and detects the client closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.InfoContext(r.Context(), "WebSocket client connected",
		"subscribers", s.bus.Subscribers())

	for {
		select {
		case <-done:
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(e)
			if err != nil {
				slog.ErrorContext(r.Context(), "Failed to marshal change signal", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

func (h *wsHub) add(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.clients[conn] = true
	return true
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// stop closes every open connection; per-connection goroutines exit
// through their read pumps.
func (h *wsHub) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
