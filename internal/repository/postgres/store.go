package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"
	"taskMaster/internal/repository/rows"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const slowThreshold = 100 * time.Millisecond

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool       *pgxpool.Pool
	connString string
	tasks      *collection[*models.Task]
	projects   *collection[*models.Project]
	users      *collection[*models.User]
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{
		pool:       pool,
		connString: connString,
		tasks:      &collection[*models.Task]{pool: pool, table: rows.Tasks},
		projects:   &collection[*models.Project]{pool: pool, table: rows.Projects},
		users:      &collection[*models.User]{pool: pool, table: rows.Users},
	}, nil
}

func (s *Storage) Tasks() repo.Collection[*models.Task]       { return s.tasks }
func (s *Storage) Projects() repo.Collection[*models.Project] { return s.projects }
func (s *Storage) Users() repo.Collection[*models.User]       { return s.users }

func (s *Storage) Close() error {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

// Migrate применяет встроенные миграции до последней версии
func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

// Down откатывает все миграции
func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Откат миграций")

	m, err := s.migrator()
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Repository: Миграции откачены")
	return nil
}

func (s *Storage) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrationURL(s.connString))
	if err != nil {
		logger.Error("Repository: Не удалось создать мигратор", err)
		return nil, fmt.Errorf("создание мигратора: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("Repository: Ошибка закрытия мигратора", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
}

// migrationURL переводит строку подключения на схему драйвера pgx/v5 для golang-migrate
func migrationURL(connString string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

type collection[T models.Entity] struct {
	pool  *pgxpool.Pool
	table rows.Table[T]
}

func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	defer logger.SlowOperation("Repository", "get", time.Now(), slowThreshold, zap.String("collection", string(c.table.Name)))

	var zero T
	entity, err := c.table.Scan(c.pool.QueryRow(ctx, c.table.SelectByID(rows.Postgres), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, repo.ErrNotFound
	}
	if err != nil {
		logger.Error("Repository: Не удалось получить запись", err, zap.String("collection", string(c.table.Name)), zap.String("id", id))
		return zero, repo.Wrap("get", c.table.Name, err)
	}
	return entity, nil
}

func (c *collection[T]) Scan(ctx context.Context, pred func(T) bool) ([]T, error) {
	defer logger.SlowOperation("Repository", "scan", time.Now(), slowThreshold, zap.String("collection", string(c.table.Name)))

	result, err := c.pool.Query(ctx, c.table.SelectAll()+" ORDER BY created_at, id")
	if err != nil {
		logger.Error("Repository: Не удалось получить записи", err, zap.String("collection", string(c.table.Name)))
		return nil, repo.Wrap("scan", c.table.Name, err)
	}
	defer result.Close()

	entities := []T{}
	for result.Next() {
		entity, err := c.table.Scan(result)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования записи", err, zap.String("collection", string(c.table.Name)))
			return nil, repo.Wrap("scan", c.table.Name, err)
		}
		if pred != nil && !pred(entity) {
			continue
		}
		entities = append(entities, entity)
	}

	if err := result.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, repo.Wrap("scan", c.table.Name, err)
	}
	return entities, nil
}

func (c *collection[T]) Put(ctx context.Context, entity T) error {
	defer logger.SlowOperation("Repository", "put", time.Now(), slowThreshold, zap.String("collection", string(c.table.Name)))

	values, err := c.table.Values(entity)
	if err != nil {
		return repo.Wrap("put", c.table.Name, err)
	}

	if _, err := c.pool.Exec(ctx, c.table.Upsert(rows.Postgres), values...); err != nil {
		logger.Error("Repository: Не удалось сохранить запись", err, zap.String("collection", string(c.table.Name)), zap.String("id", entity.EntityID()))
		return repo.Wrap("put", c.table.Name, err)
	}
	return nil
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	defer logger.SlowOperation("Repository", "delete", time.Now(), slowThreshold, zap.String("collection", string(c.table.Name)))

	if _, err := c.pool.Exec(ctx, c.table.DeleteByID(rows.Postgres), id); err != nil {
		logger.Error("Repository: Не удалось удалить запись", err, zap.String("collection", string(c.table.Name)), zap.String("id", id))
		return repo.Wrap("delete", c.table.Name, err)
	}
	return nil
}
