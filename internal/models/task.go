package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

const (
	DefaultCategory = "General"

	MaxTitleLength       = 120
	MaxDescriptionLength = 1000
)

// LocalIDPrefix marks ids fabricated on the client. The remote store never
// issues ids with this prefix.
const LocalIDPrefix = "temp-"

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = errors.New("title is too long")
	ErrDescriptionTooLong  = errors.New("description is too long")
	ErrInvalidStatus       = errors.New("invalid task status")
	ErrEmptyTaskIdentifier = errors.New("empty task identifier")
)

type Task struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// IsPending is set while the task reflects a local mutation the remote
	// store has not confirmed yet.
	IsPending bool `json:"isPending,omitempty"`
}

// IDOf is the identity used for every dedup and lookup over task lists.
func IDOf(task Task) string {
	return task.ID
}

// SameTask compares tasks by identity only.
func SameTask(a, b Task) bool {
	return IDOf(a) == IDOf(b)
}

func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// NewLocalID returns temp-<unix ms>-<random suffix>. The suffix keeps two
// creates issued within the same millisecond apart.
func NewLocalID(now time.Time) string {
	return fmt.Sprintf("%s%d-%s", LocalIDPrefix, now.UnixMilli(), uuid.NewString()[:8])
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// NewOptimisticTask builds the placeholder shown for a create the remote
// store has not confirmed yet.
func NewOptimisticTask(id string, payload TaskPayload, now time.Time) (Task, error) {
	if id == "" {
		return Task{}, ErrEmptyTaskIdentifier
	}

	payload = payload.Normalize()
	err := payload.ValidateCreate()
	if err != nil {
		return Task{}, err
	}

	task := Task{
		ID:        id,
		Status:    StatusPending,
		Category:  DefaultCategory,
		CreatedAt: now,
		UpdatedAt: now,
		IsPending: true,
	}
	return payload.ApplyTo(task), nil
}

// Validate checks a task record as received from the remote store or the
// cache.
func (t Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskIdentifier
	}
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if t.Status != "" && !IsValidStatus(t.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// WithDefaults fills the fields the remote store defaults when they are
// absent.
func (t Task) WithDefaults() Task {
	if t.Status == "" {
		t.Status = StatusPending
	}
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	return t
}
