package models

import (
	"slices"
	"time"
)

type Task struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	DueAt       *time.Time         `json:"due_at,omitempty"`
	Completed   bool               `json:"completed"`
	Priority    Priority           `json:"priority"`
	ProjectID   *string            `json:"project_id,omitempty"`
	Tags        []string           `json:"tags"`
	Recurring   bool               `json:"recurring"`
	Recurrence  *RecurrencePattern `json:"recurrence,omitempty"`
	ParentID    *string            `json:"parent_id,omitempty"`
	Assignees   []string           `json:"assignees"`
	Attachments []string           `json:"attachments"`
	Private     bool               `json:"private"`
	Pinned      bool               `json:"pinned"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type Priority string

const PriorityHigh Priority = "HIGH"
const PriorityMedium Priority = "MEDIUM"
const PriorityLow Priority = "LOW"

type RecurrencePattern string

const RecurrenceDaily RecurrencePattern = "DAILY"
const RecurrenceWeekly RecurrencePattern = "WEEKLY"
const RecurrenceMonthly RecurrencePattern = "MONTHLY"

func (t *Task) EntityID() string { return t.ID }

// Clone возвращает глубокую копию задачи: срезы и указатели не разделяются с оригиналом
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.DueAt = cloneTime(t.DueAt)
	c.ProjectID = cloneString(t.ProjectID)
	c.ParentID = cloneString(t.ParentID)
	if t.Recurrence != nil {
		r := *t.Recurrence
		c.Recurrence = &r
	}
	c.Tags = CloneSet(t.Tags)
	c.Assignees = CloneSet(t.Assignees)
	c.Attachments = CloneSet(t.Attachments)
	return &c
}

// IsOverdue - незавершённая задача со сроком не позже now
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueAt != nil && !t.DueAt.After(now)
}

func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}
