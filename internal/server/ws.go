package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/logging"
)

// LiveInterval is how often the status snapshot is polled for changes.
const LiveInterval = 100 * time.Millisecond

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LiveHandler pushes the status snapshot to WebSocket clients whenever it
// changes. New clients receive the current snapshot immediately.
type LiveHandler struct {
	source StatusSource
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewLiveHandler creates a LiveHandler polling source.
func NewLiveHandler(source StatusSource, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		source:  source,
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

type liveMessage struct {
	Status    app.Status `json:"status"`
	Timestamp int64      `json:"timestamp"`
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade", logging.Err(err))
		return
	}
	defer conn.Close()

	msg, err := encodeStatus(h.source.Status())
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *LiveHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast polls the status source until ctx is canceled and sends every
// changed snapshot to all clients.
func (h *LiveHandler) Broadcast(ctx context.Context) {
	ticker := time.NewTicker(LiveInterval)
	defer ticker.Stop()

	var last app.Status
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		st := h.source.Status()
		if sameStatus(st, last) {
			continue
		}
		last = st

		msg, err := encodeStatus(st)
		if err != nil {
			h.logger.Debug("encode status", logging.Err(err))
			continue
		}
		h.send(msg)
	}
}

func (h *LiveHandler) send(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("websocket write", logging.Err(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func encodeStatus(st app.Status) ([]byte, error) {
	return json.Marshal(liveMessage{Status: st, Timestamp: time.Now().UnixMilli()})
}

// sameStatus compares snapshots ignoring the update time.
func sameStatus(a, b app.Status) bool {
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	return a == b
}
