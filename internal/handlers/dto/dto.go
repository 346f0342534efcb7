package dto

import (
	"time"

	"taskMaster/internal/models"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
	ParentID    *string    `json:"parent_id,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Recurrence  *string    `json:"recurrence,omitempty"`
	Private     bool       `json:"private"`
	Pinned      bool       `json:"pinned"`
	Assignees   []string   `json:"assignees,omitempty"`
}

type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       *int64   `json:"color,omitempty"`
	Members     []string `json:"members,omitempty"`
	CreatedBy   *string  `json:"created_by,omitempty"`
}

type TitleRequest struct {
	Title string `json:"title"`
}

type TagRequest struct {
	Tag string `json:"tag"`
}

type MemberRequest struct {
	UserID string `json:"user_id"`
}

type BatchRequest struct {
	IDs []string `json:"ids"`
}

type CredentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type ResetRequest struct {
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

type TaskResponse struct {
	*models.Task
	IsOverdue   bool `json:"is_overdue"`
	HasSubtasks bool `json:"has_subtasks"`
}

func FromTask(t *models.Task, now time.Time) TaskResponse {
	return TaskResponse{
		Task:      t,
		IsOverdue: t.IsOverdue(now),
	}
}

// FromTaskList отмечает задачи, у которых в том же снимке есть подзадачи
func FromTaskList(tasks []*models.Task, now time.Time, hasChildren func(string) bool) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now)
		if hasChildren != nil {
			result[i].HasSubtasks = hasChildren(t.ID)
		}
	}
	return result
}

type Snapshot struct {
	Collection string `json:"collection"`
	Query      string `json:"query"`
	Items      any    `json:"items"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
}
