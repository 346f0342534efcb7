package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProjectOption func(*models.Project)

func WithProjectDescription(description string) ProjectOption {
	return func(project *models.Project) {
		project.Description = description
	}
}

func WithColor(color int64) ProjectOption {
	return func(project *models.Project) {
		project.Color = &color
	}
}

func WithMembers(userIDs ...string) ProjectOption {
	return func(project *models.Project) {
		project.Members = models.NormalizeSet(userIDs)
	}
}

func WithCreator(userID string) ProjectOption {
	return func(project *models.Project) {
		project.CreatedBy = &userID
	}
}

// ProjectService - удаление проекта не затрагивает его задачи
type ProjectService struct {
	store  repo.Store
	locker *KeyedLocker
	clock  Clock
}

func NewProjectService(store repo.Store, clock Clock) *ProjectService {
	return &ProjectService{
		store:  store,
		locker: NewKeyedLocker(),
		clock:  clock,
	}
}

func (s *ProjectService) Create(ctx context.Context, name string, options ...ProjectOption) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "пустое название")
	}

	now := s.clock.now()
	project := &models.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Members:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range options {
		opt(project)
	}

	if err := s.store.Projects().Put(ctx, project); err != nil {
		return nil, fmt.Errorf("создание проекта: %w", err)
	}

	logger.Debug("Service: Проект создан", zap.String("project_id", project.ID))
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.store.Projects().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("проект %s не найден: %w", id, err)
		}
		return nil, fmt.Errorf("получение проекта: %w", err)
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return remove(ctx, s.locker, s.store.Projects(), id)
}

func (s *ProjectService) Archive(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, true)
}

func (s *ProjectService) Unarchive(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, false)
}

func (s *ProjectService) setArchived(ctx context.Context, id string, archived bool) error {
	return s.mutate(ctx, id, func(project *models.Project) bool {
		if project.Archived == archived {
			return false
		}
		project.Archived = archived
		return true
	})
}

func (s *ProjectService) AddMember(ctx context.Context, id, userID string) error {
	return s.mutate(ctx, id, func(project *models.Project) bool {
		var changed bool
		project.Members, changed = models.AddToSet(project.Members, userID)
		return changed
	})
}

func (s *ProjectService) RemoveMember(ctx context.Context, id, userID string) error {
	return s.mutate(ctx, id, func(project *models.Project) bool {
		var changed bool
		project.Members, changed = models.RemoveFromSet(project.Members, userID)
		return changed
	})
}

func (s *ProjectService) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "пустое название")
	}
	return s.mutate(ctx, id, func(project *models.Project) bool {
		if project.Name == name {
			return false
		}
		project.Name = name
		return true
	})
}

func (s *ProjectService) Describe(ctx context.Context, id, description string) error {
	return s.mutate(ctx, id, func(project *models.Project) bool {
		if project.Description == description {
			return false
		}
		project.Description = description
		return true
	})
}

// Recolor(nil) сбрасывает цвет
func (s *ProjectService) Recolor(ctx context.Context, id string, color *int64) error {
	return s.mutate(ctx, id, func(project *models.Project) bool {
		switch {
		case project.Color == nil && color == nil:
			return false
		case project.Color != nil && color != nil && *project.Color == *color:
			return false
		}
		if color == nil {
			project.Color = nil
		} else {
			c := *color
			project.Color = &c
		}
		return true
	})
}

// Duplicate создаёт копию проекта без его задач. Для отсутствующего проекта возвращает пустой id.
func (s *ProjectService) Duplicate(ctx context.Context, id string) (string, error) {
	source, err := s.store.Projects().Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Debug("Service: Проект для копирования не найден", zap.String("target_id", id))
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("получение проекта: %w", err)
	}

	now := s.clock.now()
	dup := source.Clone()
	dup.ID = uuid.NewString()
	dup.Name = copyPrefix + source.Name
	dup.CreatedAt = now
	dup.UpdatedAt = now

	if err := s.store.Projects().Put(ctx, dup); err != nil {
		return "", fmt.Errorf("сохранение копии проекта: %w", err)
	}
	return dup.ID, nil
}

func (s *ProjectService) ArchiveMany(ctx context.Context, ids []string) error {
	return each(ctx, ids, s.Archive)
}

func (s *ProjectService) DeleteMany(ctx context.Context, ids []string) error {
	return each(ctx, ids, s.Delete)
}

func (s *ProjectService) AddMemberToMany(ctx context.Context, ids []string, userID string) error {
	return each(ctx, ids, func(ctx context.Context, id string) error {
		return s.AddMember(ctx, id, userID)
	})
}

func (s *ProjectService) RemoveMemberFromMany(ctx context.Context, ids []string, userID string) error {
	return each(ctx, ids, func(ctx context.Context, id string) error {
		return s.RemoveMember(ctx, id, userID)
	})
}

func (s *ProjectService) mutate(ctx context.Context, id string, apply func(*models.Project) bool) error {
	_, err := mutate(ctx, s.locker, s.store.Projects(), id, func(project *models.Project) (bool, error) {
		if !apply(project) {
			return false, nil
		}
		project.UpdatedAt = later(s.clock.now(), project.UpdatedAt)
		return true, nil
	})
	return err
}
