// Package local is an in-process identity provider: credentials live in
// memory, passwords are bcrypt hashes and sessions are HS256 JWTs.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"taskMaster/internal/identity"
	"taskMaster/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer            = "taskmaster"
	minPasswordLength = 6
	defaultTokenTTL   = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrEmailInUse         = errors.New("email уже используется")
	ErrWeakPassword       = errors.New("слишком короткий пароль")
	ErrInvalidEmail       = errors.New("некорректный email")
	ErrUnknownAccount     = errors.New("учётная запись не найдена")
	ErrInvalidToken       = errors.New("недействительный токен")
)

type account struct {
	subject identity.Subject
	hash    []byte
}

type Provider struct {
	mtx      sync.RWMutex
	byEmail  map[string]*account
	byID     map[string]*account
	outbox   []string
	secret   []byte
	tokenTTL time.Duration
	cost     int
	clock    func() time.Time
}

type Option func(*Provider)

func WithTokenTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.tokenTTL = ttl
		}
	}
}

// WithCost задаёт стоимость bcrypt; в тестах удобно bcrypt.MinCost
func WithCost(cost int) Option {
	return func(p *Provider) {
		p.cost = cost
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		p.clock = clock
	}
}

func New(secret []byte, options ...Option) *Provider {
	p := &Provider{
		byEmail:  make(map[string]*account),
		byID:     make(map[string]*account),
		secret:   secret,
		tokenTTL: defaultTokenTTL,
		cost:     bcrypt.DefaultCost,
		clock:    time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Subject, error) {
	if err := ctx.Err(); err != nil {
		return identity.Subject{}, err
	}

	p.mtx.RLock()
	acc, ok := p.byEmail[normalizeEmail(email)]
	var (
		subject identity.Subject
		hash    []byte
	)
	if ok {
		subject, hash = acc.subject, acc.hash
	}
	p.mtx.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return identity.Subject{}, authError("sign-in", ErrInvalidCredentials)
	}

	token, err := p.issue(subject.ID)
	if err != nil {
		return identity.Subject{}, err
	}
	subject.Token = token
	return subject, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (identity.Subject, error) {
	if err := ctx.Err(); err != nil {
		return identity.Subject{}, err
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return identity.Subject{}, authError("sign-up", ErrInvalidEmail)
	}
	if len(password) < minPasswordLength {
		return identity.Subject{}, authError("sign-up", ErrWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return identity.Subject{}, fmt.Errorf("хеширование пароля: %w", err)
	}

	key := normalizeEmail(addr.Address)
	subject := identity.Subject{
		ID:          uuid.NewString(),
		Email:       addr.Address,
		DisplayName: strings.TrimSpace(displayName),
	}

	p.mtx.Lock()
	if _, exists := p.byEmail[key]; exists {
		p.mtx.Unlock()
		return identity.Subject{}, authError("sign-up", ErrEmailInUse)
	}
	acc := &account{subject: subject, hash: hash}
	p.byEmail[key] = acc
	p.byID[subject.ID] = acc
	p.mtx.Unlock()

	logger.Info("Identity: Учётная запись создана", zap.String("subject", subject.ID))

	token, err := p.issue(subject.ID)
	if err != nil {
		return identity.Subject{}, err
	}
	subject.Token = token
	return subject, nil
}

// SignOut ничего не хранит: токены без состояния истекают сами
func (p *Provider) SignOut(ctx context.Context) error {
	return ctx.Err()
}

// SendPasswordReset кладёт адрес в исходящие; доставка писем вне провайдера
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := normalizeEmail(email)
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if _, ok := p.byEmail[key]; !ok {
		return authError("password-reset", ErrUnknownAccount)
	}
	p.outbox = append(p.outbox, key)
	logger.Info("Identity: Запрошен сброс пароля", zap.String("email", key))
	return nil
}

func (p *Provider) ChangePassword(ctx context.Context, subjectID, current, next string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(next) < minPasswordLength {
		return authError("change-password", ErrWeakPassword)
	}

	p.mtx.RLock()
	acc, ok := p.byID[subjectID]
	var hash []byte
	if ok {
		hash = acc.hash
	}
	p.mtx.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(current)) != nil {
		return authError("change-password", ErrInvalidCredentials)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(next), p.cost)
	if err != nil {
		return fmt.Errorf("хеширование пароля: %w", err)
	}

	p.mtx.Lock()
	acc.hash = newHash
	p.mtx.Unlock()
	return nil
}

func (p *Provider) UpdateProfile(ctx context.Context, subjectID, displayName string, photoURL *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	acc, ok := p.byID[subjectID]
	if !ok {
		return authError("update-profile", ErrUnknownAccount)
	}
	acc.subject.DisplayName = displayName
	acc.subject.PhotoURL = nil
	if photoURL != nil {
		photo := *photoURL
		acc.subject.PhotoURL = &photo
	}
	return nil
}

// Verify проверяет подпись и срок токена и возвращает id субъекта
func (p *Provider) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.clock),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	p.mtx.RLock()
	_, ok := p.byID[claims.Subject]
	p.mtx.RUnlock()
	if !ok {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Outbox возвращает адреса, для которых запрошен сброс пароля
func (p *Provider) Outbox() []string {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return append([]string(nil), p.outbox...)
}

func (p *Provider) issue(subjectID string) (string, error) {
	now := p.clock()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}
	return token, nil
}

func authError(op string, err error) *identity.AuthError {
	return &identity.AuthError{Op: op, Message: err.Error(), Err: err}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ identity.Provider = (*Provider)(nil)
var _ identity.ProfileUpdater = (*Provider)(nil)
