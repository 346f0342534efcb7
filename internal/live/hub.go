// Package live keeps query results current: every completed write to a
// collection re-evaluates the subscriptions on that collection and pushes a
// fresh snapshot to their channels.
package live

import (
	"context"
	"sync"
	"time"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"

	"go.uber.org/zap"
)

type subscriber interface {
	notify()
	Cancel()
}

type Hub struct {
	store repo.Store
	clock func() time.Time

	mtx    sync.Mutex
	subs   map[models.Collection]map[uint64]subscriber
	nextID uint64
}

// NewHub - store используется только для чтения; записи должны идти через
// ObservedStore, иначе подписчики не узнают об изменениях
func NewHub(store repo.Store, clock func() time.Time) *Hub {
	if clock == nil {
		clock = time.Now
	}
	return &Hub{
		store: store,
		clock: clock,
		subs:  make(map[models.Collection]map[uint64]subscriber),
	}
}

func (h *Hub) SubscribeTasks(ctx context.Context, q TaskQuery) *Subscription[*models.Task] {
	return subscribe(ctx, h, models.CollectionTasks, q.Name(), func(ctx context.Context) ([]*models.Task, error) {
		return QueryTasks(ctx, h.store, q, h.clock())
	})
}

func (h *Hub) SubscribeProjects(ctx context.Context, q ProjectQuery) *Subscription[*models.Project] {
	return subscribe(ctx, h, models.CollectionProjects, q.Name(), func(ctx context.Context) ([]*models.Project, error) {
		return QueryProjects(ctx, h.store, q)
	})
}

func (h *Hub) SubscribeUsers(ctx context.Context, q UserQuery) *Subscription[*models.User] {
	return subscribe(ctx, h, models.CollectionUsers, q.Name(), func(ctx context.Context) ([]*models.User, error) {
		return QueryUsers(ctx, h.store, q)
	})
}

// Notify помечает подписки коллекции устаревшими. Вызывается после завершённой записи.
func (h *Hub) Notify(collection models.Collection) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	for _, sub := range h.subs[collection] {
		sub.notify()
	}
}

// Refresh принудительно пересчитывает запросы коллекции, зависящие от времени
func (h *Hub) Refresh(collection models.Collection) {
	logger.Debug("Live: Принудительный пересчёт", zap.String("collection", string(collection)))
	h.Notify(collection)
}

func (h *Hub) Subscribers(collection models.Collection) int {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return len(h.subs[collection])
}

// Close отменяет все подписки и дожидается их завершения
func (h *Hub) Close() {
	h.mtx.Lock()
	all := make([]subscriber, 0)
	for _, subs := range h.subs {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	h.mtx.Unlock()

	for _, sub := range all {
		sub.Cancel()
	}
	logger.Info("Live: Все подписки закрыты", zap.Int("count", len(all)))
}

func (h *Hub) register(collection models.Collection, sub subscriber) uint64 {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	h.nextID++
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[uint64]subscriber)
	}
	h.subs[collection][h.nextID] = sub
	return h.nextID
}

func (h *Hub) unregister(collection models.Collection, id uint64) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	delete(h.subs[collection], id)
}
