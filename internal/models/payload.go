package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskPayload is a partial task. Nil fields are unspecified and leave the
// target untouched.
type TaskPayload struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Category    *string    `json:"category,omitempty"`
}

func (p TaskPayload) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Status == nil &&
		p.DueDate == nil &&
		p.Category == nil
}

// Merge overlays next onto p. Fields set in next win.
func (p TaskPayload) Merge(next TaskPayload) TaskPayload {
	if next.Title != nil {
		p.Title = next.Title
	}
	if next.Description != nil {
		p.Description = next.Description
	}
	if next.Status != nil {
		p.Status = next.Status
	}
	if next.DueDate != nil {
		p.DueDate = next.DueDate
	}
	if next.Category != nil {
		p.Category = next.Category
	}
	return p
}

func (p TaskPayload) ApplyTo(task Task) Task {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.DueDate != nil {
		dueDate := *p.DueDate
		task.DueDate = &dueDate
	}
	if p.Category != nil {
		task.Category = *p.Category
	}
	return task
}

// Normalize trims title and category the way the remote store does.
func (p TaskPayload) Normalize() TaskPayload {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		if category == "" {
			category = DefaultCategory
		}
		p.Category = &category
	}
	return p
}

// Validate checks the fields that are present.
func (p TaskPayload) Validate() error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return ErrTitleRequired
		}
		if utf8.RuneCountInString(title) > MaxTitleLength {
			return ErrTitleTooLong
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if p.Status != nil && !IsValidStatus(*p.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// ValidateCreate additionally requires a title.
func (p TaskPayload) ValidateCreate() error {
	if p.Title == nil {
		return ErrTitleRequired
	}
	return p.Validate()
}

func String(s string) *string {
	return &s
}

func Time(t time.Time) *time.Time {
	return &t
}
