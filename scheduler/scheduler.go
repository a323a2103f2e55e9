// Package scheduler repeats a run on a fixed interval until the process stops.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// RunFunc performs one run.
type RunFunc func(ctx context.Context) error

// Scheduler runs a RunFunc immediately and then every interval. Runs never
// overlap: a run still in progress when the next one is due delays it.
type Scheduler struct {
	gocron   gocron.Scheduler
	interval time.Duration
	run      RunFunc
	logger   zerolog.Logger
}

// New creates a new scheduler.
func New(interval time.Duration, run RunFunc, logger zerolog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	if run == nil {
		return nil, errors.New("run function is required")
	}

	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		gocron:   gs,
		interval: interval,
		run:      run,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Run starts the schedule and blocks until ctx is cancelled. The in-flight run
// sees the cancellation through its context and is waited for before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.gocron.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.executeRun(ctx)
		}),
		gocron.WithName("reconcile"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info().Dur("interval", s.interval).Msg("Starting scheduler")
	s.gocron.Start()

	<-ctx.Done()

	s.logger.Info().Msg("Stopping scheduler")
	if err := s.gocron.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

// executeRun runs once, logging and suppressing any error.
func (s *Scheduler) executeRun(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	startTime := time.Now()
	err := s.run(ctx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error().
			Err(err).
			Dur("duration", duration).
			Msg("Run failed, will retry at next interval")
	}

	if next, ok := s.nextRun(); ok {
		s.logger.Info().
			Time("next_run", next).
			Str("in", time.Until(next).Round(time.Second).String()).
			Msg("Next run scheduled")
	}
}

func (s *Scheduler) nextRun() (time.Time, bool) {
	for _, job := range s.gocron.Jobs() {
		next, err := job.NextRun()
		if err == nil && !next.IsZero() {
			return next, true
		}
	}
	return time.Time{}, false
}
