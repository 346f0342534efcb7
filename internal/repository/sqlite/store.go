// Package sqlite is the default local-first backend: a single SQLite file
// holding the tasks, projects and users tables.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"taskMaster/internal/logger"
	"taskMaster/internal/models"
	repo "taskMaster/internal/repository"
	"taskMaster/internal/repository/rows"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// 1 - индексы по полям, которые используют живые запросы
const currentSchemaVersion = 1

const slowThreshold = 100 * time.Millisecond

type Store struct {
	db       *sql.DB
	tasks    *collection[*models.Task]
	projects *collection[*models.Project]
	users    *collection[*models.User]
}

// Open создаёт или открывает базу по пути path и применяет схему.
// Повторный вызов для существующего файла безопасен.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("создание каталога базы: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logger.Error("Repository: Не удалось открыть SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие базы: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	// SQLite допускает одного писателя
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("настройка pragma: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("применение схемы: %w", err)
	}

	logger.Info("Repository: Успешное открытие SQLite", zap.String("path", path))
	return &Store{
		db:       db,
		tasks:    &collection[*models.Task]{db: db, table: rows.Tasks},
		projects: &collection[*models.Project]{db: db, table: rows.Projects},
		users:    &collection[*models.User]{db: db, table: rows.Users},
	}, nil
}

// DefaultPath - $XDG_DATA_HOME/taskmaster/taskmaster.db или ~/.local/share/...
func DefaultPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "taskmaster", "taskmaster.db"), nil
}

func (s *Store) Tasks() repo.Collection[*models.Task]       { return s.tasks }
func (s *Store) Projects() repo.Collection[*models.Project] { return s.projects }
func (s *Store) Users() repo.Collection[*models.User]       { return s.users }

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	logger.Info("Repository: Закрытие SQLite")
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("выполнение %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("выполнение схемы: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("чтение user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("запись user_version: %w", err)
	}
	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
		CREATE INDEX IF NOT EXISTS idx_projects_archived ON projects(archived);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("миграция до v1: %w", err)
	}
	return nil
}

type collection[T models.Entity] struct {
	db    *sql.DB
	table rows.Table[T]
}

func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	defer logger.SlowOperation("Repository", "get", time.Now(), slowThreshold, zap.String("collection", string(c.table.Name)))

	var zero T
	entity, err := c.table.Scan(c.db.QueryRowContext(ctx, c.table.SelectByID(rows.SQLite), id))
	if errors.Is(err, sql.ErrNoRows) {
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

	result, err := c.db.QueryContext(ctx, c.table.SelectAll()+" ORDER BY created_at, id")
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

	if _, err := c.db.ExecContext(ctx, c.table.Upsert(rows.SQLite), values...); err != nil {
		logger.Error("Repository: Не удалось сохранить запись", err, zap.String("collection", string(c.table.Name)), zap.String("id", entity.EntityID()))
		return repo.Wrap("put", c.table.Name, err)
	}
	return nil
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	defer logger.SlowOperation("Repository", "delete", time.Now(), slowThreshold, zap.String("collection", string(c.table.Name)))

	if _, err := c.db.ExecContext(ctx, c.table.DeleteByID(rows.SQLite), id); err != nil {
		logger.Error("Repository: Не удалось удалить запись", err, zap.String("collection", string(c.table.Name)), zap.String("id", id))
		return repo.Wrap("delete", c.table.Name, err)
	}
	return nil
}
