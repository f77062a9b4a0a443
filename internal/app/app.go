// Package app orchestrates the long-running components of the service, the
// HTTP server and the maintenance scheduler, under one lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nutrichat/nutrichat/internal/config"
	"github.com/nutrichat/nutrichat/internal/server"
)

// App manages the components' lifecycle.
type App struct {
	logger    *slog.Logger
	cfg       *config.Config
	srv       *server.Server
	scheduler *Scheduler
}

// New creates the application orchestrator.
func New(logger *slog.Logger, cfg *config.Config, srv *server.Server, scheduler *Scheduler) *App {
	return &App{
		logger:    logger.With("component", "app"),
		cfg:       cfg,
		srv:       srv,
		scheduler: scheduler,
	}
}

// Run starts the HTTP server and the scheduler, then blocks until the
// context is cancelled or a component fails. Both components are stopped
// before Run returns.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting application...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.srv.Run(gCtx); err != nil {
			a.logger.Error("HTTP server failed", "error", err)
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Application stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Application stopped gracefully.")
	return nil
}
