package handlers

import (
	"context"

	"taskMaster/internal/identity"
	"taskMaster/internal/models"
	"taskMaster/internal/service"
)

type TaskService interface {
	Create(ctx context.Context, title string, options ...service.TaskOption) (*models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkIncomplete(ctx context.Context, id string) error
	TogglePin(ctx context.Context, id string) error
	TogglePrivacy(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (string, error)
	AddTag(ctx context.Context, id, tag string) error
	RemoveTag(ctx context.Context, id, tag string) error
	Rename(ctx context.Context, id, title string) error
}

type ProjectService interface {
	Create(ctx context.Context, name string, options ...service.ProjectOption) (*models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (string, error)
	AddMember(ctx context.Context, id, userID string) error
	RemoveMember(ctx context.Context, id, userID string) error
	ArchiveMany(ctx context.Context, ids []string) error
}

type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignUp(ctx context.Context, email, password, displayName string) (*models.User, error)
	SignOut(ctx context.Context) error
	Session() (identity.Subject, bool)
	CurrentUser(ctx context.Context) (*models.User, error)
	SendPasswordReset(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, current, next string) error
}
