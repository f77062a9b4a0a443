package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/nutrichat/nutrichat/internal/ratelimit"
)

// Scheduler runs the periodic maintenance jobs, currently the rate limiter
// sweep that evicts expired client windows.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	limiter   *ratelimit.Limiter
	interval  time.Duration
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler that sweeps the limiter at the given
// interval.
func NewScheduler(logger *slog.Logger, limiter *ratelimit.Limiter, interval time.Duration) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scheduler")

	s, err := gocron.NewScheduler(gocron.WithLogger(newGocronLogger(log)))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		limiter:   limiter,
		interval:  interval,
	}, nil
}

// Start registers the sweep job and begins ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			start := time.Now()
			removed := s.limiter.Sweep()
			s.logger.Debug("Swept rate limiter windows",
				"removed", removed,
				"remaining", s.limiter.Size(),
				"duration", time.Since(start))
		}),
		gocron.WithName("ratelimit_sweep"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule rate limiter sweep: %w", err)
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "sweep_interval", s.interval)

	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	s.running = false
	if err != nil {
		return fmt.Errorf("scheduler shutdown failed: %w", err)
	}

	s.logger.Info("Scheduler stopped")
	return nil
}
