package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hanaplan/settled/internal/domain"
	"github.com/hanaplan/settled/internal/infrastructure/metrics"
	"github.com/hanaplan/settled/internal/usecase"
)

// Runner executes one settlement batch under its run lock.
type Runner interface {
	RunBatch(ctx context.Context, batch string, targetDate time.Time) (*domain.SettlementResult, error)
}

// Scheduler fires the settlement batches once a day at a fixed wall-clock
// time. It runs continuously until the context is cancelled. Manual API
// triggers share the run lock with scheduled runs, so a day where an
// operator already ran a batch simply records the scheduled attempt as
// skipped.
type Scheduler struct {
	runner  Runner
	hour    int
	minute  int
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Config for Scheduler.
type Config struct {
	Runner  Runner
	Hour    int // settlement hour, 0-23
	Minute  int // settlement minute, 0-59
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time // defaults to time.Now
}

// New creates a new Scheduler.
func New(cfg Config) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Scheduler{
		runner:  cfg.Runner,
		hour:    cfg.Hour,
		minute:  cfg.Minute,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}
}

// Start begins the daily settlement loop.
// It runs continuously until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().
		Int("hour", s.hour).
		Int("minute", s.minute).
		Msg("settlement scheduler started")

	for {
		next := nextRun(s.now(), s.hour, s.minute)
		timer := time.NewTimer(next.Sub(s.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("settlement scheduler shutting down")

			return ctx.Err()
		case <-timer.C:
			s.runOnce(ctx, next)
		}
	}
}

// runOnce fires both batches for one settlement day. A failed or skipped
// loan batch never blocks the savings batch.
func (s *Scheduler) runOnce(ctx context.Context, target time.Time) {
	for _, batch := range []string{usecase.BatchLoan, usecase.BatchSavings} {
		start := time.Now()

		result, err := s.runner.RunBatch(ctx, batch, target)
		if err != nil {
			if errors.Is(err, usecase.ErrRunInProgress) {
				s.logger.Warn().Str("batch", batch).Msg("scheduled run skipped, batch already running")
				if s.metrics != nil {
					s.metrics.RunLockContention.WithLabelValues(batch).Inc()
				}

				continue
			}

			s.logger.Error().Err(err).Str("batch", batch).Msg("scheduled settlement run failed")

			continue
		}

		s.logger.Info().
			Str("batch", batch).
			Int("success", result.SuccessCount()).
			Int("failure", result.FailureCount()).
			Int("error", result.ErrorCount()).
			Str("total_amount", result.TotalAmount.String()).
			Msg("scheduled settlement run completed")

		if s.metrics != nil {
			amount, _ := result.TotalAmount.Float64()
			s.metrics.ObserveRun(batch,
				result.SuccessCount(), result.FailureCount(), result.ErrorCount(),
				amount, time.Since(start).Seconds())
		}
	}
}

// nextRun returns the next wall-clock occurrence of hour:minute after now.
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}
