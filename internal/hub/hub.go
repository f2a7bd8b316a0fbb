// Package hub provides the real-time WebSocket fan-out for taskwire.
//
// Every successful task or event mutation is published to all connected
// clients. Delivery is fire-and-forget: at most once, no persistence, no
// replay, no ordering promise across clients. A client that is briefly
// disconnected misses whatever was sent during the gap and reconciles by
// refetching.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Broadcast event names, shared by the server and client sides.
const (
	TaskCreated  = "taskCreated"
	TaskUpdated  = "taskUpdated"
	TaskDeleted  = "taskDeleted"
	EventCreated = "eventCreated"
	EventUpdated = "eventUpdated"
	EventDeleted = "eventDeleted"
)

// Envelope is the wire format for broadcast messages: the event name
// plus the record (or bare identifier for deletions) as the payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Publisher is the mutation-side interface controllers publish through.
type Publisher interface {
	Emit(event string, payload any)
}

// Hub manages WebSocket connections and broadcasts envelopes to every
// connected client. It is constructed once at startup and injected into
// the API server; there is no package-level instance.
type Hub struct {
	origins []string

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Envelope

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// Config holds hub configuration.
type Config struct {
	// AllowedOrigins for the WebSocket upgrade (default: all).
	AllowedOrigins []string

	// Logger for hub activity (default: stderr logger).
	Logger *log.Logger
}

// New creates a hub. Call Start before emitting.
func New(config *Config) *Hub {
	if config == nil {
		config = &Config{}
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		origins:   origins,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Envelope, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}
}

// Start launches the broadcast loop.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.broadcastLoop()
}

// Stop closes all client connections and stops the broadcast loop.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	h.wg.Wait()
}

// Emit publishes an event to all connected clients. Fire-and-forget:
// marshal failures and a full broadcast queue are logged, never
// returned, so a publish problem cannot fail the mutation that caused
// it.
func (h *Hub) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("Failed to marshal %s payload: %v", event, err)
		return
	}

	select {
	case h.broadcast <- Envelope{Event: event, Data: data}:
	case <-h.ctx.Done():
	default:
		h.logger.Printf("Warning: broadcast channel full, dropping %s", event)
	}
}

// broadcastLoop fans queued envelopes out to every connected client.
func (h *Hub) broadcastLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return

		case env := <-h.broadcast:
			data, err := json.Marshal(env)
			if err != nil {
				h.logger.Printf("Failed to marshal envelope: %v", err)
				continue
			}

			h.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.clientsMu.RUnlock()

			// Write outside the read lock so a slow client cannot
			// block connects and disconnects
			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					h.logger.Printf("Failed to send to client: %v", err)
					h.removeClient(conn)
				}
			}
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and parks it
// in the client set until it disconnects. No authentication is applied:
// every connected client receives every user's notifications.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.clientsMu.Unlock()

	h.logger.Printf("Client connected (total: %d)", count)

	go h.readLoop(conn)
}

// readLoop drains client frames to keep the connection alive and detect
// disconnects. Client messages are not processed.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.removeClient(conn)

	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			return
		}
	}
}

// removeClient safely removes a client connection.
func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, exists := h.clients[conn]; exists {
		delete(h.clients, conn)
		count := len(h.clients)
		h.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Printf("Client disconnected (total: %d)", count)
	} else {
		h.clientsMu.Unlock()
	}
}

// ClientCount returns the current number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}
