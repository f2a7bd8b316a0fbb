package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()

	h := New(&Config{Logger: log.New(os.Stderr, "[test] ", log.LstdFlags)})
	h.Start()

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Stop()
		srv.Close()
	})

	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v", err)
	}
	return env
}

func TestClientConnectDisconnect(t *testing.T) {
	h, url := newTestHub(t)

	conn := dial(t, url)

	// Connection registration is asynchronous with the upgrade response
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	conn.Close(websocket.StatusNormalClosure, "")
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestEmitReachesAllClients(t *testing.T) {
	h, url := newTestHub(t)

	conns := []*websocket.Conn{dial(t, url), dial(t, url), dial(t, url)}
	waitFor(t, func() bool { return h.ClientCount() == len(conns) })

	h.Emit(TaskCreated, map[string]string{"id": "abc123", "title": "Pay rent"})

	for i, conn := range conns {
		env := readEnvelope(t, conn)
		if env.Event != TaskCreated {
			t.Errorf("Client %d: expected event %q, got %q", i, TaskCreated, env.Event)
		}

		var payload map[string]string
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			t.Fatalf("Client %d: failed to unmarshal payload: %v", i, err)
		}
		if payload["title"] != "Pay rent" {
			t.Errorf("Client %d: expected title %q, got %q", i, "Pay rent", payload["title"])
		}
	}
}

func TestEmitExactlyOncePerCall(t *testing.T) {
	h, url := newTestHub(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Emit(TaskDeleted, map[string]string{"id": "abc123"})

	env := readEnvelope(t, conn)
	if env.Event != TaskDeleted {
		t.Fatalf("Expected %q, got %q", TaskDeleted, env.Event)
	}

	// No second delivery for a single emit
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("Received unexpected second message for a single Emit")
	}
}

func TestEmitWithNoClients(t *testing.T) {
	h, _ := newTestHub(t)

	// Must not block or panic with an empty client set
	h.Emit(EventUpdated, map[string]string{"id": "abc123"})
}

func TestEmitUnmarshalablePayloadSwallowed(t *testing.T) {
	h, url := newTestHub(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	// Channels cannot be marshaled; the error is logged and swallowed
	h.Emit(TaskCreated, make(chan int))

	// Nothing is delivered
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("Expected no delivery for unmarshalable payload")
	}
}

func TestStopClosesClients(t *testing.T) {
	h := New(nil)
	h.Start()

	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Stop()

	if count := h.ClientCount(); count != 0 {
		t.Errorf("Expected 0 clients after Stop, got %d", count)
	}
}

// waitFor polls cond for up to two seconds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met within deadline")
}
