// Package main contains the entrypoint for the nutrition assistant service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nutrichat/nutrichat/internal/app"
	"github.com/nutrichat/nutrichat/internal/config"
	"github.com/nutrichat/nutrichat/internal/database"
	"github.com/nutrichat/nutrichat/internal/gemini"
	"github.com/nutrichat/nutrichat/internal/logger"
	"github.com/nutrichat/nutrichat/internal/ratelimit"
	"github.com/nutrichat/nutrichat/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes all application components (config, logger, database,
// completion client, server, scheduler), handles graceful shutdown, and
// returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format == "json")
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	manager := database.NewManager(cfg.Mongo, log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := manager.Close(closeCtx); err != nil {
			log.Error("Failed to close database connection", "error", err)
		}
	}()

	// A missing database at boot is not fatal: the connection manager keeps
	// retrying per request and /healthz reports the degraded state.
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	if err := manager.Ping(pingCtx); err != nil {
		log.Warn("Database not reachable at startup", "error", err)
	}
	cancel()

	store := database.NewStore(manager, log)

	completer, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "error", err)
		return 1
	}

	limiter := ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)

	srv := server.New(server.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Completer: completer,
		Limiter:   limiter,
	})

	sched, err := app.NewScheduler(log, limiter, cfg.RateLimit.SweepInterval)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	application := app.New(log, cfg, srv, sched)

	log.Info("Starting service...", "addr", cfg.Server.Addr, "env", cfg.Env)
	runErr := application.Run(ctx) // Blocks until the context is cancelled or a component fails

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Service stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Service stopped gracefully.")
	return 0
}
