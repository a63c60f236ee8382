package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/moneytracker/money-tracker/internal/api"
	"github.com/moneytracker/money-tracker/internal/api/metrics"
	"github.com/moneytracker/money-tracker/internal/core/service"
	mongodb "github.com/moneytracker/money-tracker/internal/infrastructure/db/mongo"
	redisdb "github.com/moneytracker/money-tracker/internal/infrastructure/db/redis"
	"github.com/moneytracker/money-tracker/internal/infrastructure/queue"
	"github.com/moneytracker/money-tracker/internal/pkg/config"
	"github.com/moneytracker/money-tracker/pkg/logger"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", *envFile, err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "money-tracker",
		Version: version,
	})

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	categories := mongodb.NewCategoryRepository(db)
	expenses := mongodb.NewExpenseRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"users":      users.EnsureIndexes,
		"categories": categories.EnsureIndexes,
		"expenses":   expenses.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	// --- Mutation dispatcher ---
	// The dispatcher outlives the signal context so requests still in flight
	// during shutdown can finish their mutations.
	dispatcher := queue.NewDispatcher(cfg.MutationWorkers, queue.Metrics{
		QueueDepth: metrics.MutationQueueDepth,
		Duration:   metrics.MutationDuration,
	}, logger.Component("dispatcher"))
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	dispatcher.Start(dispatchCtx)

	// --- Services ---
	tx := mongodb.NewTransactor(client)
	authService := service.NewAuthService(users, redisdb.NewSessionStore(rdb), cfg.JWTSecret, cfg.TokenTTL, cfg.AdminEmails, logger.Component("auth"))
	userService := service.NewUserService(users)
	categoryService := service.NewCategoryService(categories, tx, logger.Component("categories"))
	expenseService := service.NewExpenseService(users, categories, expenses, tx, dispatcher, redisdb.NewIdempotencyStore(rdb), logger.Component("expenses"))

	e := api.NewRouter(api.Deps{
		Auth:       authService,
		Users:      userService,
		Categories: categoryService,
		Expenses:   expenseService,
		Checks: map[string]func(context.Context) error{
			"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	shutdownErr := e.Shutdown(shutdownCtx)

	stopDispatch()
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("mutation queue did not drain before timeout")
	}
	if shutdownErr != nil {
		return fmt.Errorf("http shutdown: %w", shutdownErr)
	}
	return nil
}
