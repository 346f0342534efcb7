package worker

import (
	"context"
	"fmt"
	"time"

	"taskMaster/internal/live"
	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"

	"go.uber.org/zap"
)

// Refresher - часть хаба, которой достаточно воркеру
type Refresher interface {
	Refresh(collection models.Collection)
}

// OverdueWorker периодически пересчитывает подписки на задачи: просрочка
// зависит от времени, а не только от записей в хранилище
type OverdueWorker struct {
	store    repo.Store
	hub      Refresher
	interval time.Duration
	clock    func() time.Time
}

func NewOverdueWorker(store repo.Store, hub Refresher, interval *time.Duration) *OverdueWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = time.Minute
	} else {
		intervalToSet = *interval
	}

	return &OverdueWorker{
		store:    store,
		hub:      hub,
		interval: intervalToSet,
		clock:    time.Now,
	}
}

// Start блокируется до отмены ctx
func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка просрочки запущена", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: Ошибка проверки задач", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

// Check пересчитывает подписки и возвращает текущее число просроченных задач
func (w *OverdueWorker) Check(ctx context.Context) (int, error) {
	start := time.Now()

	w.hub.Refresh(models.CollectionTasks)

	overdue, err := live.QueryTasks(ctx, w.store, live.OverdueTasks{}, w.clock())
	if err != nil {
		return 0, fmt.Errorf("получение просроченных задач: %w", err)
	}

	logger.Debug(
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("overdue", len(overdue)),
	)
	return len(overdue), nil
}
