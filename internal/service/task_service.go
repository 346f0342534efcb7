package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const copyPrefix = "Copy of "

type TaskService struct {
	store  repo.Store
	locker *KeyedLocker
	clock  Clock
}

func NewTaskService(store repo.Store, clock Clock) *TaskService {
	return &TaskService{
		store:  store,
		locker: NewKeyedLocker(),
		clock:  clock,
	}
}

func (s *TaskService) Create(ctx context.Context, title string, options ...TaskOption) (*models.Task, error) {
	now := s.clock.now()
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Priority:    models.PriorityMedium,
		Tags:        []string{},
		Assignees:   []string{},
		Attachments: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range options {
		opt(task)
	}

	if err := s.validate(ctx, task); err != nil {
		return nil, err
	}

	if err := s.store.Tasks().Put(ctx, task); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Debug("Service: Задача создана", zap.String("task_id", task.ID))
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.store.Tasks().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("задача %s не найдена: %w", id, err)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return task, nil
}

// Update применяет опции к существующей задаче
func (s *TaskService) Update(ctx context.Context, id string, options ...TaskOption) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		before := task.Clone()
		for _, opt := range options {
			opt(task)
		}
		task.Title = strings.TrimSpace(task.Title)
		if reflect.DeepEqual(before, task.Clone()) {
			return false, nil
		}
		return true, s.validate(ctx, task)
	})
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return remove(ctx, s.locker, s.store.Tasks(), id)
}

func (s *TaskService) DeleteMany(ctx context.Context, ids []string) error {
	return each(ctx, ids, s.Delete)
}

func (s *TaskService) MarkCompleted(ctx context.Context, id string) error {
	return s.setCompleted(ctx, id, true)
}

func (s *TaskService) MarkIncomplete(ctx context.Context, id string) error {
	return s.setCompleted(ctx, id, false)
}

func (s *TaskService) setCompleted(ctx context.Context, id string, completed bool) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		if task.Completed == completed {
			return false, nil
		}
		task.Completed = completed
		return true, nil
	})
}

func (s *TaskService) ToggleCompletion(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		task.Completed = !task.Completed
		return true, nil
	})
}

func (s *TaskService) TogglePin(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		task.Pinned = !task.Pinned
		return true, nil
	})
}

func (s *TaskService) TogglePrivacy(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		task.Private = !task.Private
		return true, nil
	})
}

func (s *TaskService) AddTag(ctx context.Context, id, tag string) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		var changed bool
		task.Tags, changed = models.AddToSet(task.Tags, tag)
		return changed, nil
	})
}

func (s *TaskService) RemoveTag(ctx context.Context, id, tag string) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		var changed bool
		task.Tags, changed = models.RemoveFromSet(task.Tags, tag)
		return changed, nil
	})
}

func (s *TaskService) Assign(ctx context.Context, id, userID string) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		var changed bool
		task.Assignees, changed = models.AddToSet(task.Assignees, userID)
		return changed, nil
	})
}

func (s *TaskService) Unassign(ctx context.Context, id, userID string) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		var changed bool
		task.Assignees, changed = models.RemoveFromSet(task.Assignees, userID)
		return changed, nil
	})
}

func (s *TaskService) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError("title", "пустой заголовок")
	}
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		if task.Title == title {
			return false, nil
		}
		task.Title = title
		return true, nil
	})
}

func (s *TaskService) Describe(ctx context.Context, id, description string) error {
	return s.mutate(ctx, id, func(task *models.Task) (bool, error) {
		if task.Description == description {
			return false, nil
		}
		task.Description = description
		return true, nil
	})
}

// Duplicate создаёт копию под новым id. Для отсутствующей задачи возвращает пустой id.
func (s *TaskService) Duplicate(ctx context.Context, id string) (string, error) {
	source, err := s.store.Tasks().Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Debug("Service: Задача для копирования не найдена", zap.String("target_id", id))
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("получение задачи: %w", err)
	}

	now := s.clock.now()
	dup := source.Clone()
	dup.ID = uuid.NewString()
	dup.Title = copyPrefix + source.Title
	dup.CreatedAt = now
	dup.UpdatedAt = now

	if err := s.store.Tasks().Put(ctx, dup); err != nil {
		return "", fmt.Errorf("сохранение копии задачи: %w", err)
	}
	return dup.ID, nil
}

func (s *TaskService) mutate(ctx context.Context, id string, apply func(*models.Task) (bool, error)) error {
	_, err := mutate(ctx, s.locker, s.store.Tasks(), id, func(task *models.Task) (bool, error) {
		changed, err := apply(task)
		if err != nil || !changed {
			return false, err
		}
		task.UpdatedAt = later(s.clock.now(), task.UpdatedAt)
		return true, nil
	})
	return err
}

// validate проверяет поля и глубину вложенности: подзадача не может иметь своих подзадач
func (s *TaskService) validate(ctx context.Context, task *models.Task) error {
	if task.Title == "" {
		return NewValidationError("title", "пустой заголовок")
	}
	switch task.Priority {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
	default:
		return NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", task.Priority))
	}
	if task.ParentID == nil {
		return nil
	}
	if *task.ParentID == task.ID {
		return NewValidationError("parent_id", "задача не может быть своей подзадачей")
	}

	parent, err := s.store.Tasks().Get(ctx, *task.ParentID)
	if errors.Is(err, repo.ErrNotFound) {
		// ссылка слабая, отсутствующий родитель допустим
		return nil
	}
	if err != nil {
		return fmt.Errorf("получение родительской задачи: %w", err)
	}
	if parent.ParentID != nil {
		return NewBusinessError("NESTED_SUBTASK", "допускается только один уровень подзадач",
			ToDetail("parent_id", parent.ID),
		)
	}
	return nil
}
