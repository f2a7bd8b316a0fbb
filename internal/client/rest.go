// Package client is the consumer side of taskwire: a REST wrapper, a
// WebSocket subscriber, and per-kind in-memory stores that stay live by
// combining page fetches with broadcast reconciliation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/taskwire/taskwire/internal/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is a thin REST wrapper around the taskwire API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// New creates a client for the server at baseURL authenticating with
// the given bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// do issues one JSON request. No retries: transient failures surface to
// the caller, which decides whether to try again.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// TaskPage is one page of tasks plus pagination metadata.
type TaskPage struct {
	Data        []model.Task `json:"data"`
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
}

// EventPage is one page of events plus pagination metadata.
type EventPage struct {
	Data        []model.Event `json:"data"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
}

// ListTasks fetches the user's full task set, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasksPage fetches one page of tasks.
func (c *Client) ListTasksPage(ctx context.Context, page, limit int) (*TaskPage, error) {
	var result TaskPage
	path := fmt.Sprintf("/api/tasks?page=%d&limit=%d", page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTask fetches one task by id.
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+id, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task and returns the materialized record.
func (c *Client) CreateTask(ctx context.Context, in model.CreateTaskInput) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask updates a task and returns the post-update record.
func (c *Client) UpdateTask(ctx context.Context, id string, in model.UpdateTaskInput) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}

// ListEvents fetches the user's full event set, newest first.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListEventsPage fetches one page of events.
func (c *Client) ListEventsPage(ctx context.Context, page, limit int) (*EventPage, error) {
	var result EventPage
	path := fmt.Sprintf("/api/events?page=%d&limit=%d", page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEvent fetches one event by id.
func (c *Client) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, http.MethodGet, "/api/events/"+id, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent creates an event and returns the materialized record.
func (c *Client) CreateEvent(ctx context.Context, in model.CreateEventInput) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, http.MethodPost, "/api/events", in, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent updates an event and returns the post-update record.
func (c *Client) UpdateEvent(ctx context.Context, id string, in model.UpdateEventInput) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, http.MethodPut, "/api/events/"+id, in, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+id, nil, nil)
}
