package reconcile

import (
	"sort"
	"time"

	"github.com/adanyl0v/go-todo-sync/internal/models"
)

type Position int

const (
	Prepend Position = iota
	Append
)

// Upsert replaces the task with the same id in place, or inserts it at pos
// when absent.
func Upsert(tasks []models.Task, task models.Task, pos Position) []models.Task {
	result := models.CloneTasks(tasks)
	for i := range result {
		if models.SameTask(result[i], task) {
			result[i] = task
			return Dedupe(result)
		}
	}
	if pos == Append {
		return append(result, task)
	}
	return append([]models.Task{task}, result...)
}

// Remove drops the task with id. An absent id leaves the list unchanged.
func Remove(tasks []models.Task, id string) []models.Task {
	result := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if models.IDOf(task) != id {
			result = append(result, task)
		}
	}
	return result
}

// ReplaceCreated swaps an optimistic placeholder for the task the remote
// store returned: both the local id and the server id are removed and the
// canonical task is prepended.
func ReplaceCreated(tasks []models.Task, localID string, created models.Task) []models.Task {
	result := make([]models.Task, 0, len(tasks)+1)
	result = append(result, created)
	for _, task := range tasks {
		id := models.IDOf(task)
		if id == localID || id == models.IDOf(created) {
			continue
		}
		result = append(result, task)
	}
	return result
}

// UpcomingTask is a task with a due date and the whole days left until it.
type UpcomingTask struct {
	models.Task
	DueInDays int `json:"dueInDays"`
}

// Upcoming lists the tasks that have a due date, nearest first. DueInDays
// is truncated toward zero: 36 hours ahead is 1, 30 hours ago is -1.
func Upcoming(tasks []models.Task, now time.Time) []UpcomingTask {
	var result []UpcomingTask
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		days := int(task.DueDate.Sub(now) / (24 * time.Hour))
		result = append(result, UpcomingTask{Task: task, DueInDays: days})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DueInDays < result[j].DueInDays
	})
	return result
}
