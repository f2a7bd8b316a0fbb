package client

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/taskwire/taskwire/internal/api"
	"github.com/taskwire/taskwire/internal/hub"
	"github.com/taskwire/taskwire/internal/model"
	"github.com/taskwire/taskwire/internal/store"
)

const testSecret = "test-secret"

// newTestStack starts a real server (store + hub + API) and returns an
// authenticated client for the given user.
func newTestStack(t *testing.T, user string) (*Client, string) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "taskwire.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := st.InitSchema(context.Background()); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}

	logger := log.New(os.Stderr, "[test] ", log.LstdFlags)
	h := hub.New(&hub.Config{Logger: logger})
	h.Start()

	s := api.New(&api.Config{JWTSecret: testSecret, Logger: logger}, st, h)
	srv := httptest.NewServer(s.Handler())

	t.Cleanup(func() {
		srv.Close()
		h.Stop()
		_ = st.Close()
	})

	token, err := api.SignToken(testSecret, user)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	return New(srv.URL, token), srv.URL
}

func TestClientCRUD(t *testing.T) {
	c, _ := newTestStack(t, "user1")
	ctx := context.Background()

	created, err := c.CreateTask(ctx, model.CreateTaskInput{
		Title:   "Pay rent",
		DueDate: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected server-assigned ID")
	}

	got, err := c.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if got.Title != "Pay rent" {
		t.Errorf("Round-trip mismatch: %q", got.Title)
	}

	completed := true
	updated, err := c.UpdateTask(ctx, created.ID, model.UpdateTaskInput{Completed: &completed})
	if err != nil {
		t.Fatalf("Failed to update task: %v", err)
	}
	if !updated.Completed {
		t.Error("Expected completed true")
	}

	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("Failed to delete task: %v", err)
	}

	// Second delete is a 404 APIError
	err = c.DeleteTask(ctx, created.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("Expected 404 APIError on second delete, got %v", err)
	}
}

func TestClientValidationError(t *testing.T) {
	c, _ := newTestStack(t, "user1")

	_, err := c.CreateTask(context.Background(), model.CreateTaskInput{Title: "No due date"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("Expected 400 APIError, got %v", err)
	}
	if apiErr.Message == "" {
		t.Error("Expected a validation message")
	}
}

func TestClientUnauthorized(t *testing.T) {
	_, url := newTestStack(t, "user1")

	bad := New(url, "not-a-token")
	_, err := bad.ListTasks(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("Expected 401 APIError, got %v", err)
	}
}

func TestClientPagedList(t *testing.T) {
	c, _ := newTestStack(t, "user1")
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if _, err := c.CreateTask(ctx, model.CreateTaskInput{Title: "task", DueDate: "2024-01-01"}); err != nil {
			t.Fatalf("Failed to create task %d: %v", i, err)
		}
	}

	page, err := c.ListTasksPage(ctx, 2, 3)
	if err != nil {
		t.Fatalf("Failed to list page: %v", err)
	}
	if page.CurrentPage != 2 || page.TotalPages != 3 || len(page.Data) != 3 {
		t.Errorf("Unexpected page: current %d, total %d, %d records",
			page.CurrentPage, page.TotalPages, len(page.Data))
	}

	all, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("Failed to list all: %v", err)
	}
	if len(all) != 7 {
		t.Errorf("Expected 7 tasks, got %d", len(all))
	}
}

func TestFetchPageClearsLoadingOnFailure(t *testing.T) {
	// A server that always fails
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"server error"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewTaskStore(New(srv.URL, "token"), 10, nil)
	if err := s.FetchPage(context.Background(), 1); err == nil {
		t.Fatal("Expected fetch error")
	}
	if s.Loading() {
		t.Error("Loading flag must clear even when the fetch fails")
	}
}

// TestLiveReconciliation drives the full loop: a mutation through the
// REST API is observed over the broadcast channel and reconciled into a
// subscribed store without a refetch.
func TestLiveReconciliation(t *testing.T) {
	c, url := newTestStack(t, "user1")
	ctx := context.Background()

	var noticesMu sync.Mutex
	var notices []string
	addNotice := func(msg string) {
		noticesMu.Lock()
		notices = append(notices, msg)
		noticesMu.Unlock()
	}

	taskStore := NewTaskStore(c, 10, addNotice)
	eventStore := NewEventStore(c, 10, addNotice)

	logger := log.New(os.Stderr, "[subscriber] ", log.LstdFlags)
	sub := NewSubscriber(url, logger)
	BindTasks(sub, taskStore)
	BindEvents(sub, eventStore)
	sub.Start()
	defer sub.Stop()

	// Give the subscriber a moment to connect
	time.Sleep(200 * time.Millisecond)

	created, err := c.CreateTask(ctx, model.CreateTaskInput{Title: "Pay rent", DueDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	waitFor(t, func() bool {
		records := taskStore.Records()
		return len(records) == 1 && records[0].ID == created.ID
	})

	completed := true
	if _, err := c.UpdateTask(ctx, created.ID, model.UpdateTaskInput{Completed: &completed}); err != nil {
		t.Fatalf("Failed to update task: %v", err)
	}

	waitFor(t, func() bool {
		records := taskStore.Records()
		return len(records) == 1 && records[0].Completed
	})

	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("Failed to delete task: %v", err)
	}

	waitFor(t, func() bool {
		return len(taskStore.Records()) == 0
	})

	// Each reconciliation surfaced a notice
	noticesMu.Lock()
	count := len(notices)
	noticesMu.Unlock()
	if count != 3 {
		t.Errorf("Expected 3 notices, got %d", count)
	}
}

// waitFor polls cond for up to five seconds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Condition not met within deadline")
}
