// Package identity keeps the local User record in step with an external
// identity provider session.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Subject - учётная запись, подтверждённая провайдером. ID стабилен и
// используется как id локального пользователя.
type Subject struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    *string
	// Token - токен сессии, если провайдер его выдаёт
	Token string
}

type Provider interface {
	SignIn(ctx context.Context, email, password string) (Subject, error)
	SignUp(ctx context.Context, email, password, displayName string) (Subject, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	// ChangePassword повторно проверяет текущий пароль
	ChangePassword(ctx context.Context, subjectID, current, next string) error
}

// ProfileUpdater - необязательная возможность провайдера хранить профиль у себя
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, subjectID, displayName string, photoURL *string) error
}

var ErrNotAuthenticated = errors.New("нет активной сессии")

// AuthError - отказ провайдера. Message - текст провайдера для пользователя.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func asAuthError(op string, err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return err
	}
	return &AuthError{Op: op, Message: err.Error(), Err: err}
}

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}
