package client

import (
	"context"
	"sync"

	"github.com/taskwire/taskwire/internal/model"
)

// Filter is the client-side task view filter. It is never sent to the
// server; it only narrows what Filtered returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// TaskStore is the in-memory cache of one page of the user's tasks.
//
// Two asynchronous sources write it: page fetches and broadcast
// reconciliation. Mutations deliberately refetch instead of patching
// the cache optimistically; the cache is disposable and the server is
// the source of truth.
type TaskStore struct {
	api      *Client
	pageSize int
	notify   func(string)

	mu          sync.Mutex
	tasks       []model.Task
	loading     bool
	filter      Filter
	currentPage int
	totalPages  int
}

// NewTaskStore creates a task cache fetching pageSize records per page.
// notify receives transient user-visible notices (may be nil).
func NewTaskStore(api *Client, pageSize int, notify func(string)) *TaskStore {
	if pageSize < 1 {
		pageSize = 10
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &TaskStore{
		api:         api,
		pageSize:    pageSize,
		notify:      notify,
		filter:      FilterAll,
		currentPage: 1,
		totalPages:  1,
	}
}

// FetchPage replaces the cached page with the given page from the
// server. The loading flag clears whether or not the fetch succeeds; a
// failed fetch leaves the previous (stale) records in place.
func (s *TaskStore) FetchPage(ctx context.Context, page int) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	result, err := s.api.ListTasksPage(ctx, page, s.pageSize)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = result.Data
	s.currentPage = result.CurrentPage
	s.totalPages = result.TotalPages
	s.mu.Unlock()
	return nil
}

// Refresh refetches the current page.
func (s *TaskStore) Refresh(ctx context.Context) error {
	return s.FetchPage(ctx, s.CurrentPage())
}

// Create persists a new task, then refetches page 1 to reconcile.
func (s *TaskStore) Create(ctx context.Context, in model.CreateTaskInput) error {
	if _, err := s.api.CreateTask(ctx, in); err != nil {
		return err
	}
	return s.FetchPage(ctx, 1)
}

// Update persists a task change, then refetches the current page.
func (s *TaskStore) Update(ctx context.Context, id string, in model.UpdateTaskInput) error {
	if _, err := s.api.UpdateTask(ctx, id, in); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Delete removes a task, then refetches the current page.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// SetFilter changes the view filter and resets to page 1.
func (s *TaskStore) SetFilter(ctx context.Context, f Filter) error {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	return s.FetchPage(ctx, 1)
}

// ApplyCreated reconciles a taskCreated broadcast: the record is
// prepended as-is. The page is not re-sorted or re-paginated, so the
// cache can be transiently unsorted until the next fetch.
func (s *TaskStore) ApplyCreated(task model.Task) {
	s.mu.Lock()
	s.tasks = append([]model.Task{task}, s.tasks...)
	s.mu.Unlock()
	s.notify("A new task was added.")
}

// ApplyUpdated reconciles a taskUpdated broadcast, replacing the record
// with the matching id in place. Unknown ids are ignored.
func (s *TaskStore) ApplyUpdated(task model.Task) {
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			break
		}
	}
	s.mu.Unlock()
	s.notify("A task was updated.")
}

// ApplyDeleted reconciles a taskDeleted broadcast, removing the record
// with the matching id.
func (s *TaskStore) ApplyDeleted(id string) {
	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()
	s.notify("A task was deleted.")
}

// Filtered derives the visible records under the active filter. Pure
// read of current state, recomputed on every call.
func (s *TaskStore) Filtered() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		switch s.filter {
		case FilterActive:
			if !t.Completed {
				out = append(out, t)
			}
		case FilterCompleted:
			if t.Completed {
				out = append(out, t)
			}
		default:
			out = append(out, t)
		}
	}
	return out
}

// Records returns a copy of the cached page.
func (s *TaskStore) Records() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CurrentPage returns the cached page number.
func (s *TaskStore) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage
}

// TotalPages returns the page count reported by the last fetch.
func (s *TaskStore) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPages
}

// EventStore is the in-memory cache of one page of the user's events.
// It behaves like TaskStore without the view filter.
type EventStore struct {
	api      *Client
	pageSize int
	notify   func(string)

	mu          sync.Mutex
	events      []model.Event
	loading     bool
	currentPage int
	totalPages  int
}

// NewEventStore creates an event cache fetching pageSize records per
// page. notify receives transient user-visible notices (may be nil).
func NewEventStore(api *Client, pageSize int, notify func(string)) *EventStore {
	if pageSize < 1 {
		pageSize = 10
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &EventStore{
		api:         api,
		pageSize:    pageSize,
		notify:      notify,
		currentPage: 1,
		totalPages:  1,
	}
}

// FetchPage replaces the cached page with the given page from the
// server.
func (s *EventStore) FetchPage(ctx context.Context, page int) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	result, err := s.api.ListEventsPage(ctx, page, s.pageSize)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.events = result.Data
	s.currentPage = result.CurrentPage
	s.totalPages = result.TotalPages
	s.mu.Unlock()
	return nil
}

// Refresh refetches the current page.
func (s *EventStore) Refresh(ctx context.Context) error {
	return s.FetchPage(ctx, s.CurrentPage())
}

// Create persists a new event, then refetches page 1 to reconcile.
func (s *EventStore) Create(ctx context.Context, in model.CreateEventInput) error {
	if _, err := s.api.CreateEvent(ctx, in); err != nil {
		return err
	}
	return s.FetchPage(ctx, 1)
}

// Update persists an event change, then refetches the current page.
func (s *EventStore) Update(ctx context.Context, id string, in model.UpdateEventInput) error {
	if _, err := s.api.UpdateEvent(ctx, id, in); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Delete removes an event, then refetches the current page.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteEvent(ctx, id); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// ApplyCreated reconciles an eventCreated broadcast by prepending.
func (s *EventStore) ApplyCreated(event model.Event) {
	s.mu.Lock()
	s.events = append([]model.Event{event}, s.events...)
	s.mu.Unlock()
	s.notify("A new event was added.")
}

// ApplyUpdated reconciles an eventUpdated broadcast in place.
func (s *EventStore) ApplyUpdated(event model.Event) {
	s.mu.Lock()
	for i := range s.events {
		if s.events[i].ID == event.ID {
			s.events[i] = event
			break
		}
	}
	s.mu.Unlock()
	s.notify("An event was updated.")
}

// ApplyDeleted reconciles an eventDeleted broadcast by removal.
func (s *EventStore) ApplyDeleted(id string) {
	s.mu.Lock()
	kept := s.events[:0]
	for _, e := range s.events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.events = kept
	s.mu.Unlock()
	s.notify("An event was deleted.")
}

// Records returns a copy of the cached page.
func (s *EventStore) Records() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *EventStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CurrentPage returns the cached page number.
func (s *EventStore) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage
}

// TotalPages returns the page count reported by the last fetch.
func (s *EventStore) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPages
}
