package live

import (
	"context"
	"sync"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"

	"go.uber.org/zap"
)

// Result - один снимок запроса. Err != nil означает сбой вычисления,
// а не пустой результат; Items в этом случае пуст.
type Result[T any] struct {
	Items []T
	Err   error
}

type Subscription[T any] struct {
	id         uint64
	hub        *Hub
	collection models.Collection
	query      string
	eval       func(context.Context) ([]T, error)

	out      chan Result[T]
	dirty    chan struct{}
	cancel   context.CancelFunc
	finished chan struct{}
	once     sync.Once
}

func subscribe[T any](ctx context.Context, h *Hub, collection models.Collection, query string, eval func(context.Context) ([]T, error)) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		hub:        h,
		collection: collection,
		query:      query,
		eval:       eval,
		out:        make(chan Result[T]),
		dirty:      make(chan struct{}, 1),
		cancel:     cancel,
		finished:   make(chan struct{}),
	}
	// регистрация до первого вычисления: запись, завершившаяся между ними, не потеряется
	s.id = h.register(collection, s)

	logger.Debug("Live: Новая подписка",
		zap.Uint64("subscription", s.id),
		zap.String("collection", string(collection)),
		zap.String("query", query),
	)

	go s.run(ctx)
	return s
}

// Updates закрывается после Cancel или отмены контекста подписки
func (s *Subscription[T]) Updates() <-chan Result[T] {
	return s.out
}

// Cancel останавливает подписку. После возврата канал Updates закрыт.
func (s *Subscription[T]) Cancel() {
	s.once.Do(s.cancel)
	<-s.finished
}

func (s *Subscription[T]) notify() {
	select {
	case s.dirty <- struct{}{}:
	default:
		// пересчёт уже запланирован, записи схлопываются
	}
}

func (s *Subscription[T]) run(ctx context.Context) {
	defer close(s.finished)
	defer close(s.out)
	defer s.hub.unregister(s.collection, s.id)
	defer logger.Debug("Live: Подписка завершена", zap.Uint64("subscription", s.id))

	if !s.emit(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
			if !s.emit(ctx) {
				return
			}
		}
	}
}

func (s *Subscription[T]) emit(ctx context.Context) bool {
	items, err := s.eval(ctx)
	if ctx.Err() != nil {
		return false
	}

	res := Result[T]{Items: items}
	if err != nil {
		logger.Warn("Live: Ошибка вычисления запроса",
			zap.Uint64("subscription", s.id),
			zap.String("collection", string(s.collection)),
			zap.String("query", s.query),
			zap.Error(err),
		)
		res = Result[T]{Items: []T{}, Err: err}
	}

	select {
	case s.out <- res:
		return true
	case <-ctx.Done():
		return false
	}
}
