package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"taskMaster/internal/codec"
	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"

	"go.uber.org/zap"
)

// Profile - данные учётной записи от провайдера идентификации
type Profile struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    *string
}

// UserService - единственный писатель коллекции пользователей.
// Пользователи создаются только через Upsert при входе или регистрации.
type UserService struct {
	store  repo.Store
	locker *KeyedLocker
	clock  Clock
}

func NewUserService(store repo.Store, clock Clock) *UserService {
	return &UserService{
		store:  store,
		locker: NewKeyedLocker(),
		clock:  clock,
	}
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("пользователь %s не найден: %w", id, err)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}

// GetByEmail сравнивает адреса без учёта регистра
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	users, err := s.store.Users().Scan(ctx, func(u *models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if err != nil {
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("пользователь %s не найден: %w", email, repo.ErrNotFound)
	}
	return users[0], nil
}

// Upsert создаёт пользователя при первом входе или обновляет время последнего входа.
// Существующий профиль и настройки не перезаписываются. Изменение - одна запись.
func (s *UserService) Upsert(ctx context.Context, profile Profile) (*models.User, bool, error) {
	if profile.ID == "" {
		return nil, false, NewValidationError("id", "пустой идентификатор субъекта")
	}

	unlock, err := s.locker.Lock(ctx, profile.ID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	now := s.clock.now()
	user, err := s.store.Users().Get(ctx, profile.ID)
	created := false
	switch {
	case errors.Is(err, repo.ErrNotFound):
		created = true
		user = newUser(profile, now)
	case err != nil:
		return nil, false, fmt.Errorf("получение пользователя: %w", err)
	default:
		user.LastLoginAt = later(now, user.LastLoginAt)
	}

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := s.store.Users().Put(ctx, user); err != nil {
		return nil, false, fmt.Errorf("сохранение пользователя: %w", err)
	}

	if created {
		logger.Info("Service: Создан локальный пользователь", zap.String("user_id", user.ID))
	}
	return user, created, nil
}

func newUser(profile Profile, now time.Time) *models.User {
	displayName := strings.TrimSpace(profile.DisplayName)
	if displayName == "" {
		displayName = profile.Email
	}
	user := &models.User{
		ID:          profile.ID,
		Email:       profile.Email,
		DisplayName: displayName,
		Settings:    models.DefaultSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: now,
	}
	if profile.PhotoURL != nil {
		user.PhotoURL = models.Ptr(*profile.PhotoURL)
	}
	return user
}

// RecordLogin обновляет только время последнего входа
func (s *UserService) RecordLogin(ctx context.Context, id string) error {
	_, err := mutate(ctx, s.locker, s.store.Users(), id, func(user *models.User) (bool, error) {
		user.LastLoginAt = later(s.clock.now(), user.LastLoginAt)
		return true, nil
	})
	return err
}

func (s *UserService) UpdateSettings(ctx context.Context, id string, settings models.UserSettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	return s.mutate(ctx, id, func(user *models.User) bool {
		next := settings
		if settings.DefaultProjectID != nil {
			next.DefaultProjectID = models.Ptr(*settings.DefaultProjectID)
		}
		if reflect.DeepEqual(user.Settings, next) {
			return false
		}
		user.Settings = next
		return true
	})
}

func (s *UserService) UpdateLanguage(ctx context.Context, id, language string) error {
	language = strings.TrimSpace(language)
	if language == "" {
		return NewValidationError("language", "пустой код языка")
	}
	return s.mutate(ctx, id, func(user *models.User) bool {
		if user.Settings.Language == language {
			return false
		}
		user.Settings.Language = language
		return true
	})
}

func (s *UserService) UpdateDefaultView(ctx context.Context, id string, view models.TaskView) error {
	if _, err := codec.DecodeTaskView(string(view)); err != nil {
		return NewValidationError("default_view", err.Error())
	}
	return s.mutate(ctx, id, func(user *models.User) bool {
		if user.Settings.DefaultView == view {
			return false
		}
		user.Settings.DefaultView = view
		return true
	})
}

func (s *UserService) ToggleDarkMode(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(user *models.User) bool {
		user.Settings.DarkMode = !user.Settings.DarkMode
		return true
	})
}

func (s *UserService) ToggleNotifications(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(user *models.User) bool {
		user.Settings.Notifications = !user.Settings.Notifications
		return true
	})
}

func (s *UserService) ToggleEmailNotifications(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(user *models.User) bool {
		user.Settings.EmailNotifications = !user.Settings.EmailNotifications
		return true
	})
}

func (s *UserService) ToggleCalendarSync(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(user *models.User) bool {
		user.Settings.CalendarSync = !user.Settings.CalendarSync
		return true
	})
}

func (s *UserService) ToggleBiometric(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(user *models.User) bool {
		user.Settings.Biometric = !user.Settings.Biometric
		return true
	})
}

// UpdateDefaultProject(nil) сбрасывает проект по умолчанию
func (s *UserService) UpdateDefaultProject(ctx context.Context, id string, projectID *string) error {
	return s.mutate(ctx, id, func(user *models.User) bool {
		current := user.Settings.DefaultProjectID
		if equalOptional(current, projectID) {
			return false
		}
		user.Settings.DefaultProjectID = nil
		if projectID != nil {
			user.Settings.DefaultProjectID = models.Ptr(*projectID)
		}
		return true
	})
}

func (s *UserService) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return NewValidationError("display_name", "пустое имя")
	}
	return s.mutate(ctx, id, func(user *models.User) bool {
		if user.DisplayName == displayName {
			return false
		}
		user.DisplayName = displayName
		return true
	})
}

func (s *UserService) UpdatePhoto(ctx context.Context, id string, photoURL *string) error {
	return s.mutate(ctx, id, func(user *models.User) bool {
		if equalOptional(user.PhotoURL, photoURL) {
			return false
		}
		user.PhotoURL = nil
		if photoURL != nil {
			user.PhotoURL = models.Ptr(*photoURL)
		}
		return true
	})
}

func (s *UserService) mutate(ctx context.Context, id string, apply func(*models.User) bool) error {
	_, err := mutate(ctx, s.locker, s.store.Users(), id, func(user *models.User) (bool, error) {
		if !apply(user) {
			return false, nil
		}
		user.UpdatedAt = later(s.clock.now(), user.UpdatedAt)
		return true, nil
	})
	return err
}

func validateSettings(settings models.UserSettings) error {
	if strings.TrimSpace(settings.Language) == "" {
		return NewValidationError("language", "пустой код языка")
	}
	if _, err := codec.DecodeTaskView(string(settings.DefaultView)); err != nil {
		return NewValidationError("default_view", err.Error())
	}
	return nil
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
