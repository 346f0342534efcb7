// Package storetest holds the behaviour every repository.Store backend must
// share. Backend test files call Run with a constructor for a fresh store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskMaster/internal/models"
	"taskMaster/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Opener func(t *testing.T) repository.Store

func Run(t *testing.T, open Opener) {
	t.Run("task round trip", func(t *testing.T) { testTaskRoundTrip(t, open(t)) })
	t.Run("get missing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("put replaces", func(t *testing.T) { testPutReplaces(t, open(t)) })
	t.Run("scan predicate", func(t *testing.T) { testScanPredicate(t, open(t)) })
	t.Run("scan returns copies", func(t *testing.T) { testScanReturnsCopies(t, open(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("project round trip", func(t *testing.T) { testProjectRoundTrip(t, open(t)) })
	t.Run("user round trip", func(t *testing.T) { testUserRoundTrip(t, open(t)) })
	t.Run("health check", func(t *testing.T) {
		require.NoError(t, open(t).HealthCheck(context.Background()))
	})
}

// Fixed - момент времени без долей секунды, одинаково переживающий любой бэкенд
func Fixed(offset time.Duration) time.Time {
	return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC).Add(offset)
}

func NewTask(id, title string) *models.Task {
	return &models.Task{
		ID:          id,
		Title:       title,
		Priority:    models.PriorityMedium,
		Tags:        []string{},
		Assignees:   []string{},
		Attachments: []string{},
		CreatedAt:   Fixed(0),
		UpdatedAt:   Fixed(0),
	}
}

func testTaskRoundTrip(t *testing.T, store repository.Store) {
	ctx := context.Background()
	due := Fixed(48 * time.Hour)
	weekly := models.RecurrenceWeekly

	task := &models.Task{
		ID:          "task-1",
		Title:       "Report",
		Description: "Quarterly report",
		DueAt:       &due,
		Completed:   true,
		Priority:    models.PriorityHigh,
		ProjectID:   models.Ptr("project-1"),
		Tags:        []string{"work", "q2"},
		Recurring:   true,
		Recurrence:  &weekly,
		ParentID:    models.Ptr("task-0"),
		Assignees:   []string{"user-1"},
		Attachments: []string{"file://report.pdf"},
		Private:     true,
		Pinned:      true,
		CreatedAt:   Fixed(0),
		UpdatedAt:   Fixed(time.Hour),
	}

	require.NoError(t, store.Tasks().Put(ctx, task))

	got, err := store.Tasks().Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, task, got)
}

func testGetMissing(t *testing.T, store repository.Store) {
	ctx := context.Background()

	_, err := store.Tasks().Get(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = store.Projects().Get(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = store.Users().Get(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func testPutReplaces(t *testing.T, store repository.Store) {
	ctx := context.Background()

	require.NoError(t, store.Tasks().Put(ctx, NewTask("task-1", "Original")))

	updated := NewTask("task-1", "Updated")
	updated.Tags = []string{"a"}
	require.NoError(t, store.Tasks().Put(ctx, updated))

	got, err := store.Tasks().Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
	assert.Equal(t, []string{"a"}, got.Tags)

	all, err := store.Tasks().Scan(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testScanPredicate(t *testing.T, store repository.Store) {
	ctx := context.Background()

	for i, title := range []string{"one", "two", "three"} {
		task := NewTask(title, title)
		task.Completed = i%2 == 0
		require.NoError(t, store.Tasks().Put(ctx, task))
	}

	completed, err := store.Tasks().Scan(ctx, func(task *models.Task) bool { return task.Completed })
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	all, err := store.Tasks().Scan(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.Tasks().Scan(ctx, func(*models.Task) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testScanReturnsCopies(t *testing.T, store repository.Store) {
	ctx := context.Background()

	task := NewTask("task-1", "Original")
	task.Tags = []string{"a"}
	require.NoError(t, store.Tasks().Put(ctx, task))

	// изменение переданного значения после Put не влияет на хранилище
	task.Title = "Changed after put"

	all, err := store.Tasks().Scan(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	all[0].Title = "Changed"
	all[0].Tags[0] = "b"

	got, err := store.Tasks().Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func testDelete(t *testing.T, store repository.Store) {
	ctx := context.Background()

	require.NoError(t, store.Tasks().Put(ctx, NewTask("task-1", "Doomed")))
	require.NoError(t, store.Tasks().Delete(ctx, "task-1"))

	_, err := store.Tasks().Get(ctx, "task-1")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	// удаление отсутствующей записи не ошибка
	assert.NoError(t, store.Tasks().Delete(ctx, "task-1"))
}

func testProjectRoundTrip(t *testing.T, store repository.Store) {
	ctx := context.Background()

	project := &models.Project{
		ID:          "project-1",
		Name:        "Launch",
		Description: "Product launch",
		Color:       models.Ptr(int64(0xFF8800)),
		Members:     []string{"user-1", "user-2"},
		CreatedAt:   Fixed(0),
		UpdatedAt:   Fixed(time.Minute),
		CreatedBy:   models.Ptr("user-1"),
		Archived:    true,
	}
	require.NoError(t, store.Projects().Put(ctx, project))

	got, err := store.Projects().Get(ctx, "project-1")
	require.NoError(t, err)
	assert.Equal(t, project, got)

	bare := &models.Project{ID: "project-2", Name: "Bare", Members: []string{}, CreatedAt: Fixed(0), UpdatedAt: Fixed(0)}
	require.NoError(t, store.Projects().Put(ctx, bare))

	got, err = store.Projects().Get(ctx, "project-2")
	require.NoError(t, err)
	assert.Equal(t, bare, got)
}

func testUserRoundTrip(t *testing.T, store repository.Store) {
	ctx := context.Background()

	settings := models.DefaultSettings()
	settings.CalendarSync = true
	settings.DefaultProjectID = models.Ptr("project-1")

	user := &models.User{
		ID:          "subject-1",
		Email:       "ann@example.com",
		DisplayName: "Ann",
		PhotoURL:    models.Ptr("https://example.com/ann.png"),
		Settings:    settings,
		CreatedAt:   Fixed(0),
		UpdatedAt:   Fixed(time.Second),
		LastLoginAt: Fixed(time.Hour),
	}
	require.NoError(t, store.Users().Put(ctx, user))

	got, err := store.Users().Get(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, user, got)
}
