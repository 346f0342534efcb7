package identity

import (
	"context"
	"fmt"
	"sync"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	"taskMaster/internal/service"

	"go.uber.org/zap"
)

// Service - конечный автомат сессии: Unauthenticated -> Authenticated -> Unauthenticated.
// Все записи в коллекцию пользователей идут через UserService.
type Service struct {
	provider Provider
	users    *service.UserService

	mtx     sync.RWMutex
	session *Subject
}

func NewService(provider Provider, users *service.UserService) *Service {
	return &Service{
		provider: provider,
		users:    users,
	}
}

// SignIn создаёт локального пользователя при первом входе, иначе только
// обновляет время последнего входа. Повторный вход не создаёт дубликатов.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	subject, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		logger.Warn("Identity: Отказ во входе", zap.String("email", email), zap.Error(err))
		return nil, asAuthError("sign-in", err)
	}

	user, created, err := s.users.Upsert(ctx, profileOf(subject))
	if err != nil {
		return nil, fmt.Errorf("синхронизация пользователя: %w", err)
	}

	s.setSession(&subject)
	logger.Info("Identity: Вход выполнен", zap.String("user_id", user.ID), zap.Bool("created", created))
	return user, nil
}

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*models.User, error) {
	subject, err := s.provider.SignUp(ctx, email, password, displayName)
	if err != nil {
		logger.Warn("Identity: Отказ в регистрации", zap.String("email", email), zap.Error(err))
		return nil, asAuthError("sign-up", err)
	}
	if subject.DisplayName == "" {
		subject.DisplayName = displayName
	}

	user, _, err := s.users.Upsert(ctx, profileOf(subject))
	if err != nil {
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.setSession(&subject)
	logger.Info("Identity: Регистрация выполнена", zap.String("user_id", user.ID))
	return user, nil
}

// SignOut завершает сессию; локальный пользователь остаётся
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return asAuthError("sign-out", err)
	}
	s.setSession(nil)
	logger.Info("Identity: Выход выполнен")
	return nil
}

func (s *Service) State() State {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.session == nil {
		return StateUnauthenticated
	}
	return StateAuthenticated
}

// Session возвращает копию текущей сессии
func (s *Service) Session() (Subject, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.session == nil {
		return Subject{}, false
	}
	return *s.session, true
}

func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	subject, ok := s.Session()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return s.users.Get(ctx, subject.ID)
}

func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return asAuthError("password-reset", err)
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	subject, ok := s.Session()
	if !ok {
		return ErrNotAuthenticated
	}
	if err := s.provider.ChangePassword(ctx, subject.ID, current, next); err != nil {
		return asAuthError("change-password", err)
	}
	logger.Info("Identity: Пароль изменён", zap.String("user_id", subject.ID))
	return nil
}

// UpdateProfile меняет имя и фото у провайдера (если он это умеет) и в локальном пользователе
func (s *Service) UpdateProfile(ctx context.Context, displayName string, photoURL *string) (*models.User, error) {
	subject, ok := s.Session()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	if updater, ok := s.provider.(ProfileUpdater); ok {
		if err := updater.UpdateProfile(ctx, subject.ID, displayName, photoURL); err != nil {
			return nil, asAuthError("update-profile", err)
		}
	}

	if err := s.users.UpdateDisplayName(ctx, subject.ID, displayName); err != nil {
		return nil, err
	}
	if err := s.users.UpdatePhoto(ctx, subject.ID, photoURL); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, subject.ID)
}

func (s *Service) setSession(subject *Subject) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.session = subject
}

func profileOf(subject Subject) service.Profile {
	return service.Profile{
		ID:          subject.ID,
		Email:       subject.Email,
		DisplayName: subject.DisplayName,
		PhotoURL:    subject.PhotoURL,
	}
}
