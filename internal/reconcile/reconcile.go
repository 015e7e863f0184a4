// Package reconcile merges a base task list with the pending mutation queue
// into the list shown to the user. Every function here is pure and returns
// a fresh slice.
package reconcile

import (
	"github.com/adanyl0v/go-todo-sync/internal/models"
)

// Reconcile applies queue onto base:
//  1. tasks targeted by a delete entry are dropped;
//  2. update payloads are overlaid onto the remaining tasks;
//  3. optimistic tasks of create entries are prepended, most recently
//     queued first, replacing any task with the same id;
//  4. the result is deduplicated by id, first occurrence wins.
//
// Reconcile(Reconcile(b, q), q) equals Reconcile(b, q).
func Reconcile(base []models.Task, queue []models.QueueEntry) []models.Task {
	if len(queue) == 0 {
		return Dedupe(base)
	}

	deleted := make(map[string]struct{})
	updates := make(map[string]models.TaskPayload)
	var creates []models.Task
	for _, entry := range queue {
		switch entry.Kind {
		case models.KindDelete:
			deleted[entry.TargetID] = struct{}{}
		case models.KindUpdate:
			updates[entry.TargetID] = updates[entry.TargetID].Merge(entry.Payload)
		case models.KindCreate:
			if entry.Task != nil {
				task := *entry.Task
				task.IsPending = true
				creates = append(creates, task)
			}
		}
	}

	created := make(map[string]struct{}, len(creates))
	for _, task := range creates {
		created[models.IDOf(task)] = struct{}{}
	}

	result := make([]models.Task, 0, len(base)+len(creates))
	for i := len(creates) - 1; i >= 0; i-- {
		result = append(result, creates[i])
	}
	for _, task := range base {
		id := models.IDOf(task)
		if _, ok := deleted[id]; ok {
			continue
		}
		if _, ok := created[id]; ok {
			continue
		}
		if payload, ok := updates[id]; ok {
			task = payload.ApplyTo(task)
			task.IsPending = true
		}
		result = append(result, task)
	}

	return Dedupe(result)
}

// Dedupe keeps the first occurrence of every id.
func Dedupe(tasks []models.Task) []models.Task {
	seen := make(map[string]struct{}, len(tasks))
	result := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		id := models.IDOf(task)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, task)
	}
	return result
}
