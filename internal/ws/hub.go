package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/songbridge/songbridge/internal/history"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// notifyBufSize is the depth of the store-change queue. Overflow drops
	// the notification; the affected owner's next change re-broadcasts.
	notifyBufSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — the overlay is a local browser source; apply CORS
	// at a reverse proxy if this is ever exposed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients on connect and on every
// history change for their owner.
type Message struct {
	Event   string           `json:"event"`
	Owner   string           `json:"owner"`
	Records []history.Record `json:"records"`
}

// Hub manages overlay WebSocket clients and pushes an owner's current
// history to its clients whenever the store changes. Clients choose their
// owner with the ?owner= query parameter.
type Hub struct {
	store  *history.Store
	notify chan string

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
//
// send is never closed: broadcasts may still be in flight on another
// goroutine when the client disconnects, and a send to a closed channel
// would take the process down. Teardown is signalled through done instead;
// writePump drains send until done closes.
type client struct {
	conn  *websocket.Conn
	owner string
	send  chan []byte
	done  chan struct{}
}

// New creates a Hub reading from st. Wire store changes to it with
// st.SetOnChange(hub.Notify).
func New(st *history.Store) *Hub {
	return &Hub{
		store:   st,
		notify:  make(chan string, notifyBufSize),
		clients: make(map[*client]struct{}),
	}
}

// Notify queues a broadcast for owner. Non-blocking: safe to call from the
// store's append path.
func (h *Hub) Notify(owner string) {
	select {
	case h.notify <- owner:
	default:
		slog.Debug("ws: notify queue full, dropping broadcast", "owner", owner)
	}
}

// Run drains the notify queue and broadcasts until ctx is cancelled, then
// closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case owner := <-h.notify:
			h.broadcast(owner)
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// It sends the owner's current history immediately on connect, then receives
// broadcasts as the store changes. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn:  conn,
		owner: owner,
		send:  make(chan []byte, sendBufSize),
		done:  make(chan struct{}),
	}
	h.register(c)
	defer h.unregister(c)

	// Send the current history immediately so the overlay has data right away.
	if data, err := h.buildMessage(owner); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.done)
	}
	h.mu.Unlock()
}

// broadcast sends owner's current history to every client watching owner.
func (h *Hub) broadcast(owner string) {
	data, err := h.buildMessage(owner)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.owner == owner {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			// Client's outgoing buffer is full — disconnect it.
			h.unregister(c)
		}
	}
}

func (h *Hub) buildMessage(owner string) ([]byte, error) {
	msg := Message{
		Event:   "history",
		Owner:   owner,
		Records: h.store.List(owner),
	}
	return json.Marshal(msg)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.done)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// Hub is shutting down or the client was removed.
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
