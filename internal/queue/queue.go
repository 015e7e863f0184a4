// Package queue owns the collapsing rules of the pending mutation queue.
//
// For any sequence of mutations to one target the queue ends up holding at
// most one entry whose kind is the net effect:
//
//	create + update = create
//	create + delete = nothing
//	update + update = update (payloads merged, later fields win)
//	update + delete = delete
package queue

import (
	"time"

	"github.com/adanyl0v/go-todo-sync/internal/models"
)

// Mutation is a change the user issued against one task.
type Mutation struct {
	Kind     models.QueueKind
	TargetID string
	Payload  models.TaskPayload

	// Task is the optimistic snapshot, required for creates.
	Task *models.Task
}

// Enqueue returns the queue with m applied. The input slice is not
// modified.
func Enqueue(queue []models.QueueEntry, m Mutation, now time.Time) []models.QueueEntry {
	next := models.CloneQueue(queue)
	index := Find(next, m.TargetID)

	if index < 0 {
		return append(next, newEntry(m, now, 1))
	}

	existing := next[index]
	switch existing.Kind {
	case models.KindCreate:
		if m.Kind == models.KindDelete {
			// The remote store never saw this task, so nothing is left
			// to delete there.
			return removeAt(next, index)
		}
		existing.Payload = existing.Payload.Merge(m.Payload)
		if existing.Task != nil {
			task := m.Payload.ApplyTo(*existing.Task)
			task.UpdatedAt = now
			existing.Task = &task
		}
		existing.UpdatedAt = now
		existing.Revision++
		next[index] = existing
		return next

	case models.KindUpdate:
		if m.Kind == models.KindDelete {
			next = removeAt(next, index)
			return append(next, newEntry(m, now, existing.Revision+1))
		}
		existing.Payload = existing.Payload.Merge(m.Payload)
		existing.UpdatedAt = now
		existing.Revision++
		next[index] = existing
		return next

	default:
		// A delete is already queued. Nothing issued afterwards can
		// change the net effect.
		return next
	}
}

func newEntry(m Mutation, now time.Time, revision int64) models.QueueEntry {
	entry := models.QueueEntry{
		TargetID:  m.TargetID,
		Kind:      m.Kind,
		QueuedAt:  now,
		UpdatedAt: now,
		Revision:  revision,
	}
	if m.Kind != models.KindDelete {
		entry.Payload = m.Payload
	}
	if m.Kind == models.KindCreate && m.Task != nil {
		task := *m.Task
		entry.Task = &task
	}
	return entry
}

// Find returns the index of the entry targeting id, or -1.
func Find(queue []models.QueueEntry, id string) int {
	for i, entry := range queue {
		if entry.TargetID == id {
			return i
		}
	}
	return -1
}

// RemoveIfUnchanged drops the entry targeting sent.TargetID only when it is
// still the exact version that was sent (same kind and revision). It
// reports whether the entry was removed.
func RemoveIfUnchanged(queue []models.QueueEntry, sent models.QueueEntry) ([]models.QueueEntry, bool) {
	index := Find(queue, sent.TargetID)
	if index < 0 {
		return queue, false
	}
	current := queue[index]
	if current.Kind != sent.Kind || current.Revision != sent.Revision {
		return queue, false
	}
	return removeAt(models.CloneQueue(queue), index), true
}

// Remove drops the entry targeting id, if any.
func Remove(queue []models.QueueEntry, id string) []models.QueueEntry {
	index := Find(queue, id)
	if index < 0 {
		return queue
	}
	return removeAt(models.CloneQueue(queue), index)
}

func removeAt(queue []models.QueueEntry, index int) []models.QueueEntry {
	return append(queue[:index], queue[index+1:]...)
}
