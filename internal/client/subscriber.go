package client

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/taskwire/taskwire/internal/hub"
)

// Handler consumes the payload of one broadcast event.
type Handler func(data json.RawMessage)

// Subscriber maintains a single WebSocket connection to the server's
// broadcast channel and dispatches incoming envelopes to registered
// handlers.
//
// Handlers are registered once, before Start, as an explicit
// initialization step. The connection auto-reconnects with backoff;
// anything broadcast during a gap is lost and must be reconciled by
// refetching.
type Subscriber struct {
	url    string
	logger *log.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSubscriber creates a subscriber for the server at baseURL
// (http/https; the scheme is rewritten for the WebSocket dial).
func NewSubscriber(baseURL string, logger *log.Logger) *Subscriber {
	if logger == nil {
		logger = log.Default()
	}

	url := strings.TrimRight(baseURL, "/")
	if after, ok := strings.CutPrefix(url, "https"); ok {
		url = "wss" + after
	} else if after, ok := strings.CutPrefix(url, "http"); ok {
		url = "ws" + after
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Subscriber{
		url:      url + "/ws",
		logger:   logger,
		handlers: make(map[string][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// On registers a handler for an event name. Call before Start.
func (s *Subscriber) On(event string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], h)
}

// Start connects and begins dispatching in the background.
func (s *Subscriber) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop disconnects and stops dispatching.
func (s *Subscriber) Stop() {
	s.cancel()
	s.wg.Wait()
}

// run keeps one connection alive for the process lifetime.
func (s *Subscriber) run() {
	defer s.wg.Done()

	backoff := 500 * time.Millisecond
	const maxBackoff = 10 * time.Second

	for {
		if s.ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.Dial(s.ctx, s.url, nil)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Printf("Connect failed (retrying in %v): %v", backoff, err)
			select {
			case <-time.After(backoff):
			case <-s.ctx.Done():
				return
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		s.logger.Printf("Connected to %s", s.url)
		backoff = 500 * time.Millisecond

		s.readLoop(conn)
		_ = conn.Close(websocket.StatusNormalClosure, "")

		if s.ctx.Err() != nil {
			return
		}
		s.logger.Println("Connection lost, reconnecting")
	}
}

// readLoop dispatches envelopes until the connection drops.
func (s *Subscriber) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(s.ctx)
		if err != nil {
			return
		}

		var env hub.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Printf("Discarding malformed envelope: %v", err)
			continue
		}

		s.mu.RLock()
		handlers := s.handlers[env.Event]
		s.mu.RUnlock()

		for _, h := range handlers {
			h(env.Data)
		}
	}
}
