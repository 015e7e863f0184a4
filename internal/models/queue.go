package models

import "time"

type QueueKind string

const (
	KindCreate QueueKind = "create"
	KindUpdate QueueKind = "update"
	KindDelete QueueKind = "delete"
)

func (k QueueKind) IsValid() bool {
	switch k {
	case KindCreate, KindUpdate, KindDelete:
		return true
	}
	return false
}

// QueueEntry is one mutation waiting for the remote store. The queue holds
// at most one entry per TargetID.
type QueueEntry struct {
	TargetID string      `json:"id"`
	Kind     QueueKind   `json:"type"`
	Payload  TaskPayload `json:"payload"`

	// Task is the optimistic snapshot, present on create entries only.
	Task *Task `json:"task,omitempty"`

	QueuedAt  time.Time `json:"queuedAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Revision increases on every in-place change so a replay pass can tell
	// whether the entry it sent is still the one queued.
	Revision int64 `json:"revision"`

	Attempts  int    `json:"attempts,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

// Clone deep-copies the optimistic task so queue snapshots never share it.
func (e QueueEntry) Clone() QueueEntry {
	if e.Task != nil {
		task := *e.Task
		e.Task = &task
	}
	return e
}

func CloneQueue(queue []QueueEntry) []QueueEntry {
	if queue == nil {
		return nil
	}
	cloned := make([]QueueEntry, len(queue))
	for i, entry := range queue {
		cloned[i] = entry.Clone()
	}
	return cloned
}

func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	cloned := make([]Task, len(tasks))
	copy(cloned, tasks)
	return cloned
}
