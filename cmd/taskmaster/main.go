package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskMaster/internal/app"
	"taskMaster/internal/config"
	"taskMaster/internal/logger"
	"taskMaster/internal/repository/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "taskmaster",
		Short:        "Локальный слой данных менеджера задач",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "путь к config.yml")

	root.AddCommand(newServeCmd(&configPath), newMigrateCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API и фоновую проверку просрочки",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(cfg).Init(ctx)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить схему для настроенного хранилища",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logging.Development); err != nil {
				return fmt.Errorf("инициализация логгера: %w", err)
			}
			defer logger.Sync()

			if down {
				return migrateDown(cmd.Context(), cfg)
			}

			store, err := app.OpenStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			logger.Info("Migrate: Схема актуальна", zap.String("storage", cfg.Storage.Type))
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "откатить все миграции (только postgres)")
	return cmd
}

func migrateDown(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Type != config.StoragePostgres {
		return fmt.Errorf("откат миграций поддерживается только для postgres, а не %q", cfg.Storage.Type)
	}

	store, err := postgres.New(ctx, cfg.Storage.Postgres.URL, postgres.PoolConfig{
		MaxConns:        cfg.Storage.Postgres.MaxConnections,
		MinConns:        cfg.Storage.Postgres.MinConnections,
		MaxConnIdleTime: cfg.Storage.Postgres.IdleTimeout,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Down(ctx); err != nil {
		return err
	}
	logger.Info("Migrate: Миграции откатены")
	return nil
}
