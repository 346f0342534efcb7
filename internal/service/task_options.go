package service

import (
	"time"

	"taskMaster/internal/models"
)

// TaskOption меняет черновик задачи при создании или обновлении
type TaskOption func(*models.Task)

func WithTitle(title string) TaskOption {
	return func(task *models.Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *models.Task) {
		task.Description = description
	}
}

// WithDueAt обрезает срок до секунд, как его хранит любой бэкенд
func WithDueAt(dueAt time.Time) TaskOption {
	return func(task *models.Task) {
		due := dueAt.UTC().Truncate(time.Second)
		task.DueAt = &due
	}
}

func WithoutDueAt() TaskOption {
	return func(task *models.Task) {
		task.DueAt = nil
	}
}

func WithPriority(priority models.Priority) TaskOption {
	return func(task *models.Task) {
		task.Priority = priority
	}
}

func WithProject(projectID string) TaskOption {
	return func(task *models.Task) {
		task.ProjectID = &projectID
	}
}

func WithoutProject() TaskOption {
	return func(task *models.Task) {
		task.ProjectID = nil
	}
}

func WithParent(parentID string) TaskOption {
	return func(task *models.Task) {
		task.ParentID = &parentID
	}
}

func WithTags(tags ...string) TaskOption {
	return func(task *models.Task) {
		task.Tags = models.NormalizeSet(tags)
	}
}

// WithRecurrence(nil) снимает повторение
func WithRecurrence(pattern *models.RecurrencePattern) TaskOption {
	return func(task *models.Task) {
		if pattern == nil {
			task.Recurring = false
			task.Recurrence = nil
			return
		}
		p := *pattern
		task.Recurring = true
		task.Recurrence = &p
	}
}

func WithPrivate(private bool) TaskOption {
	return func(task *models.Task) {
		task.Private = private
	}
}

func WithPinned(pinned bool) TaskOption {
	return func(task *models.Task) {
		task.Pinned = pinned
	}
}

func WithAssignees(userIDs ...string) TaskOption {
	return func(task *models.Task) {
		task.Assignees = models.NormalizeSet(userIDs)
	}
}

func WithAttachments(attachments ...string) TaskOption {
	return func(task *models.Task) {
		task.Attachments = models.NormalizeSet(attachments)
	}
}
