package service

import (
	"context"
	"errors"
	"fmt"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// mutate - чтение-изменение-запись одной сущности под блокировкой её id.
// apply меняет копию и сообщает, изменилось ли что-то; без изменений запись не выполняется.
// Отсутствующий id - тихий no-op.
func mutate[T models.Cloner[T]](
	ctx context.Context,
	locker *KeyedLocker,
	col repo.Collection[T],
	id string,
	apply func(T) (bool, error),
) (bool, error) {
	unlock, err := locker.Lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	entity, err := col.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Debug("Service: Запись не найдена, изменение пропущено", zap.String("target_id", id))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("получение записи %s: %w", id, err)
	}

	changed, err := apply(entity)
	if err != nil || !changed {
		return false, err
	}

	// отмена после проверки не прерывает запись: изменение либо не начато, либо применено целиком
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if err := col.Put(ctx, entity); err != nil {
		return false, fmt.Errorf("сохранение записи %s: %w", id, err)
	}
	return true, nil
}

// remove удаляет запись под блокировкой её id
func remove[T models.Entity](ctx context.Context, locker *KeyedLocker, col repo.Collection[T], id string) error {
	unlock, err := locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := col.Delete(ctx, id); err != nil {
		return fmt.Errorf("удаление записи %s: %w", id, err)
	}
	return nil
}

// each выполняет op для каждого id по очереди. Ошибка одного id не откатывает
// предыдущие и не останавливает оставшиеся; ошибки объединяются.
func each(ctx context.Context, ids []string, op func(context.Context, string) error) error {
	var errs error
	for _, id := range ids {
		if err := op(ctx, id); err != nil {
			logger.Warn("Service: Ошибка пакетной операции", zap.String("target_id", id), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errs
}
