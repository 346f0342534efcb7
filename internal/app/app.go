package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskMaster/internal/config"
	"taskMaster/internal/handlers"
	"taskMaster/internal/identity"
	"taskMaster/internal/identity/local"
	"taskMaster/internal/live"
	"taskMaster/internal/logger"
	repo "taskMaster/internal/repository"
	"taskMaster/internal/repository/inmemory"
	"taskMaster/internal/repository/postgres"
	"taskMaster/internal/repository/sqlite"
	"taskMaster/internal/service"
	"taskMaster/internal/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	server    *http.Server
	store     repo.Store
	hub       *live.Hub
	worker    *worker.OverdueWorker
	shutdowns []func() // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	store, err := OpenStore(ctx, a.config.Storage)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	a.store = store
	a.shutdowns = append(a.shutdowns, func() {
		if err := store.Close(); err != nil {
			logger.Error("App: Ошибка закрытия хранилища", err)
		}
	})

	a.hub = live.NewHub(store, nil)
	a.shutdowns = append(a.shutdowns, a.hub.Close)
	observed := live.Observe(store, a.hub)

	tasks := service.NewTaskService(observed, service.SystemClock)
	projects := service.NewProjectService(observed, service.SystemClock)
	users := service.NewUserService(observed, service.SystemClock)

	secret := a.config.Identity.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("App: identity.jwt_secret не задан, токены не переживут перезапуск")
	}
	provider := local.New([]byte(secret), local.WithTokenTTL(a.config.Identity.TokenTTL))
	auth := identity.NewService(provider, users)

	a.worker = worker.NewOverdueWorker(store, a.hub, &a.config.Worker.RefreshInterval)

	router := handlers.NewRouter(
		handlers.RouterConfig{
			AllowedOrigins: a.config.Server.AllowedOrigins,
			RateLimit:      a.config.Server.RateLimit,
		},
		handlers.Handlers{
			Tasks:    handlers.NewTaskHandler(tasks, nil),
			Projects: handlers.NewProjectHandler(projects),
			Auth:     handlers.NewAuthHandler(auth),
			Live:     handlers.NewLiveHandler(a.hub, store, nil),
			Health:   handlers.NewHealthHandler(store),
		},
	)

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: a.config.Server.ReadTimeout,
	}

	logger.Info("App: Инициализация завершена",
		zap.String("storage", a.config.Storage.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

// OpenStore создаёт хранилище выбранного типа; для postgres применяет миграции
func OpenStore(ctx context.Context, cfg config.StorageConfig) (repo.Store, error) {
	switch cfg.Type {
	case config.StorageInMemory:
		return inmemory.New(), nil

	case config.StorageSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			var err error
			if path, err = sqlite.DefaultPath(); err != nil {
				return nil, fmt.Errorf("путь к базе sqlite: %w", err)
			}
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("открытие sqlite: %w", err)
		}
		return store, nil

	case config.StoragePostgres:
		store, err := postgres.New(ctx, cfg.Postgres.URL, postgres.PoolConfig{
			MaxConns:        cfg.Postgres.MaxConnections,
			MinConns:        cfg.Postgres.MinConnections,
			MaxConnIdleTime: cfg.Postgres.IdleTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("миграции postgres: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Type)
}

// Run обслуживает HTTP и фоновую проверку до отмены ctx или первой ошибки
func (a *App) Run(ctx context.Context) error {
	defer a.Shutdown()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: Получен сигнал остановки")

		// подписки SSE держат соединения открытыми, поэтому хаб закрывается до сервера
		a.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Shutdown() {
	start := time.Now()
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
	logger.Info("App: Ресурсы освобождены", zap.Duration("ms", time.Since(start)))
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}
