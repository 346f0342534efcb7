package inmemory

import (
	"context"
	"sync"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"
)

// Collection хранит копии сущностей; наружу также отдаются только копии
type Collection[T models.Cloner[T]] struct {
	storage map[string]T
	mtx     *sync.RWMutex
	ids     []string
}

func NewCollection[T models.Cloner[T]]() *Collection[T] {
	return &Collection[T]{
		storage: make(map[string]T),
		mtx:     &sync.RWMutex{},
		ids:     []string{},
	}
}

func (s *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	entity, ok := s.storage[id]
	if !ok {
		return zero, repo.ErrNotFound
	}
	return entity.Clone(), nil
}

// Scan обходит записи в порядке вставки
func (s *Collection[T]) Scan(ctx context.Context, pred func(T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]T, 0, len(s.ids))
	for _, id := range s.ids {
		entity := s.storage[id]
		if pred != nil && !pred(entity) {
			continue
		}
		res = append(res, entity.Clone())
	}
	return res, nil
}

func (s *Collection[T]) Put(ctx context.Context, entity T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	id := entity.EntityID()
	if _, exists := s.storage[id]; !exists {
		s.ids = append(s.ids, id)
	}
	s.storage[id] = entity.Clone()
	return nil
}

func (s *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.storage[id]; !exists {
		return nil
	}
	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func (s *Collection[T]) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.ids)
}

type Store struct {
	tasks    *Collection[*models.Task]
	projects *Collection[*models.Project]
	users    *Collection[*models.User]
}

func New() *Store {
	return &Store{
		tasks:    NewCollection[*models.Task](),
		projects: NewCollection[*models.Project](),
		users:    NewCollection[*models.User](),
	}
}

func (s *Store) Tasks() repo.Collection[*models.Task]       { return s.tasks }
func (s *Store) Projects() repo.Collection[*models.Project] { return s.projects }
func (s *Store) Users() repo.Collection[*models.User]       { return s.users }

func (s *Store) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Хранилище в памяти доступно")
	return nil
}

func (s *Store) Close() error {
	return nil
}
