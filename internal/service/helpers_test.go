package service_test

import (
	"context"
	"sync"
	"time"

	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"

	"github.com/stretchr/testify/mock"
)

type fakeClock struct {
	mtx sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = c.now.Add(d)
}

// MockCollection - мок коллекции хранилища
type MockCollection[T models.Entity] struct {
	mock.Mock
}

func (m *MockCollection[T]) Get(ctx context.Context, id string) (T, error) {
	args := m.Called(ctx, id)
	var zero T
	if args.Get(0) == nil {
		return zero, args.Error(1)
	}
	return args.Get(0).(T), args.Error(1)
}

func (m *MockCollection[T]) Scan(ctx context.Context, pred func(T) bool) ([]T, error) {
	args := m.Called(ctx, pred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockCollection[T]) Put(ctx context.Context, entity T) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockCollection[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repo.Collection[*models.Task] = (*MockCollection[*models.Task])(nil)

// mockStore подменяет отдельные коллекции, остальные берёт из base
type mockStore struct {
	repo.Store
	tasks    repo.Collection[*models.Task]
	projects repo.Collection[*models.Project]
}

func (s *mockStore) Tasks() repo.Collection[*models.Task] {
	if s.tasks != nil {
		return s.tasks
	}
	return s.Store.Tasks()
}

func (s *mockStore) Projects() repo.Collection[*models.Project] {
	if s.projects != nil {
		return s.projects
	}
	return s.Store.Projects()
}
