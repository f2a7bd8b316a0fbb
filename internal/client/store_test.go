package client

import (
	"testing"
	"time"

	"github.com/taskwire/taskwire/internal/model"
)

func task(id, title string, completed bool) model.Task {
	return model.Task{
		ID:        id,
		UserID:    "user1",
		Title:     title,
		DueDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Completed: completed,
		CreatedAt: time.Now().UTC(),
	}
}

func TestApplyCreatedPrepends(t *testing.T) {
	var notices []string
	s := NewTaskStore(nil, 10, func(msg string) { notices = append(notices, msg) })

	s.ApplyCreated(task("a", "first", false))
	s.ApplyCreated(task("b", "second", false))

	records := s.Records()
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	// Prepend: most recently received first, no re-sort
	if records[0].ID != "b" || records[1].ID != "a" {
		t.Errorf("Expected [b a], got [%s %s]", records[0].ID, records[1].ID)
	}
	if len(notices) != 2 {
		t.Errorf("Expected 2 notices, got %d", len(notices))
	}
}

func TestApplyUpdatedReplacesInPlace(t *testing.T) {
	s := NewTaskStore(nil, 10, nil)
	s.ApplyCreated(task("a", "first", false))
	s.ApplyCreated(task("b", "second", false))

	s.ApplyUpdated(task("a", "first (done)", true))

	records := s.Records()
	if records[1].Title != "first (done)" || !records[1].Completed {
		t.Errorf("Record not replaced in place: %+v", records[1])
	}
	if records[0].Title != "second" {
		t.Errorf("Wrong record touched: %+v", records[0])
	}
}

func TestApplyUpdatedUnknownIDIgnored(t *testing.T) {
	s := NewTaskStore(nil, 10, nil)
	s.ApplyCreated(task("a", "first", false))

	s.ApplyUpdated(task("zzz", "phantom", false))

	records := s.Records()
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("Unknown-id update changed the cache: %+v", records)
	}
}

func TestApplyDeletedRemoves(t *testing.T) {
	s := NewTaskStore(nil, 10, nil)
	s.ApplyCreated(task("a", "first", false))
	s.ApplyCreated(task("b", "second", false))

	s.ApplyDeleted("a")

	records := s.Records()
	if len(records) != 1 || records[0].ID != "b" {
		t.Errorf("Expected only b to remain, got %+v", records)
	}

	// Deleting an id that is not cached is a no-op
	s.ApplyDeleted("zzz")
	if len(s.Records()) != 1 {
		t.Error("Unknown-id delete changed the cache")
	}
}

func TestFiltered(t *testing.T) {
	s := NewTaskStore(nil, 10, nil)
	s.ApplyCreated(task("a", "open one", false))
	s.ApplyCreated(task("b", "done one", true))
	s.ApplyCreated(task("c", "open two", false))

	if got := len(s.Filtered()); got != 3 {
		t.Errorf("FilterAll: expected 3, got %d", got)
	}

	s.mu.Lock()
	s.filter = FilterActive
	s.mu.Unlock()
	for _, task := range s.Filtered() {
		if task.Completed {
			t.Errorf("FilterActive returned completed task %s", task.ID)
		}
	}
	if got := len(s.Filtered()); got != 2 {
		t.Errorf("FilterActive: expected 2, got %d", got)
	}

	s.mu.Lock()
	s.filter = FilterCompleted
	s.mu.Unlock()
	filtered := s.Filtered()
	if len(filtered) != 1 || filtered[0].ID != "b" {
		t.Errorf("FilterCompleted: expected [b], got %+v", filtered)
	}
}

func TestFilteredIsACopy(t *testing.T) {
	s := NewTaskStore(nil, 10, nil)
	s.ApplyCreated(task("a", "first", false))

	view := s.Filtered()
	view[0].Title = "mutated"

	if s.Records()[0].Title != "first" {
		t.Error("Filtered view aliases the cache")
	}
}

func TestEventStoreReconciliation(t *testing.T) {
	var notices []string
	s := NewEventStore(nil, 10, func(msg string) { notices = append(notices, msg) })

	event := model.Event{
		ID:        "e1",
		UserID:    "user1",
		Title:     "Standup",
		StartDate: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	s.ApplyCreated(event)
	if len(s.Records()) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(s.Records()))
	}

	event.Title = "Standup (moved)"
	s.ApplyUpdated(event)
	if s.Records()[0].Title != "Standup (moved)" {
		t.Errorf("Update not applied: %+v", s.Records()[0])
	}

	s.ApplyDeleted("e1")
	if len(s.Records()) != 0 {
		t.Errorf("Expected empty store after delete, got %d", len(s.Records()))
	}

	if len(notices) != 3 {
		t.Errorf("Expected 3 notices, got %d", len(notices))
	}
}
