package client

import (
	"encoding/json"

	"github.com/taskwire/taskwire/internal/hub"
	"github.com/taskwire/taskwire/internal/model"
)

// BindTasks installs the task reconciliation handlers on a subscriber.
// Call exactly once per store, before the subscriber starts; this is
// the application's explicit wiring step rather than a lazily-guarded
// registration.
func BindTasks(sub *Subscriber, store *TaskStore) {
	sub.On(hub.TaskCreated, func(data json.RawMessage) {
		var task model.Task
		if err := json.Unmarshal(data, &task); err != nil {
			return
		}
		store.ApplyCreated(task)
	})
	sub.On(hub.TaskUpdated, func(data json.RawMessage) {
		var task model.Task
		if err := json.Unmarshal(data, &task); err != nil {
			return
		}
		store.ApplyUpdated(task)
	})
	sub.On(hub.TaskDeleted, func(data json.RawMessage) {
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
		store.ApplyDeleted(payload.ID)
	})
}

// BindEvents installs the event reconciliation handlers on a
// subscriber.
func BindEvents(sub *Subscriber, store *EventStore) {
	sub.On(hub.EventCreated, func(data json.RawMessage) {
		var event model.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return
		}
		store.ApplyCreated(event)
	})
	sub.On(hub.EventUpdated, func(data json.RawMessage) {
		var event model.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return
		}
		store.ApplyUpdated(event)
	})
	sub.On(hub.EventDeleted, func(data json.RawMessage) {
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
		store.ApplyDeleted(payload.ID)
	})
}
