// Package repository defines the entity store contract shared by the
// inmemory, sqlite and postgres backends.
package repository

import (
	"context"

	"taskMaster/internal/models"
)

// Collection - коллекция сущностей одного типа с ключом по id.
// Put и Delete атомарны для одной строки, Scan возвращает снимок на момент вызова.
type Collection[T models.Entity] interface {
	Get(ctx context.Context, id string) (T, error)
	Scan(ctx context.Context, pred func(T) bool) ([]T, error)
	Put(ctx context.Context, entity T) error
	Delete(ctx context.Context, id string) error
}

type Store interface {
	Tasks() Collection[*models.Task]
	Projects() Collection[*models.Project]
	Users() Collection[*models.User]
	HealthCheck(ctx context.Context) error
	Close() error
}

type (
	TaskCollection    = Collection[*models.Task]
	ProjectCollection = Collection[*models.Project]
	UserCollection    = Collection[*models.User]
)
