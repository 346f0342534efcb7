package live

import (
	"context"

	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"
)

// ObservedStore пропускает операции в исходное хранилище и сообщает хабу
// о каждой успешной записи или удалении
type ObservedStore struct {
	repo.Store
	tasks    *observedCollection[*models.Task]
	projects *observedCollection[*models.Project]
	users    *observedCollection[*models.User]
}

func Observe(store repo.Store, hub *Hub) *ObservedStore {
	return &ObservedStore{
		Store:    store,
		tasks:    &observedCollection[*models.Task]{Collection: store.Tasks(), name: models.CollectionTasks, hub: hub},
		projects: &observedCollection[*models.Project]{Collection: store.Projects(), name: models.CollectionProjects, hub: hub},
		users:    &observedCollection[*models.User]{Collection: store.Users(), name: models.CollectionUsers, hub: hub},
	}
}

func (s *ObservedStore) Tasks() repo.Collection[*models.Task]       { return s.tasks }
func (s *ObservedStore) Projects() repo.Collection[*models.Project] { return s.projects }
func (s *ObservedStore) Users() repo.Collection[*models.User]       { return s.users }

type observedCollection[T models.Entity] struct {
	repo.Collection[T]
	name models.Collection
	hub  *Hub
}

func (c *observedCollection[T]) Put(ctx context.Context, entity T) error {
	if err := c.Collection.Put(ctx, entity); err != nil {
		return err
	}
	c.hub.Notify(c.name)
	return nil
}

func (c *observedCollection[T]) Delete(ctx context.Context, id string) error {
	if err := c.Collection.Delete(ctx, id); err != nil {
		return err
	}
	c.hub.Notify(c.name)
	return nil
}
