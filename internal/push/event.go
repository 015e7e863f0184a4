package push

import (
	"github.com/adanyl0v/go-todo-sync/internal/models"
	"github.com/adanyl0v/go-todo-sync/internal/reconcile"
)

type EventType string

const (
	EventCreated EventType = "task:created"
	EventUpdated EventType = "task:updated"
	EventDeleted EventType = "task:deleted"
)

type Event struct {
	Type EventType

	// Task is the canonical record for created and updated events.
	Task models.Task

	// ID is set for every event; for deletes it is all there is.
	ID string
}

// Apply folds one event into tasks. Whatever arrives last for an id wins;
// there is no causal ordering between push events and REST responses.
func Apply(tasks []models.Task, event Event) []models.Task {
	switch event.Type {
	case EventCreated:
		return reconcile.Upsert(tasks, event.Task, reconcile.Prepend)
	case EventUpdated:
		return reconcile.Upsert(tasks, event.Task, reconcile.Append)
	case EventDeleted:
		return reconcile.Remove(tasks, event.ID)
	default:
		return tasks
	}
}
