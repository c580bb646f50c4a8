package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hanaplan/settled/internal/domain"
)

var (
	// ErrRunInProgress is returned when another process holds the batch lock.
	ErrRunInProgress = errors.New("settlement run already in progress")

	// ErrUnknownBatch is returned for batch names the runner does not know.
	ErrUnknownBatch = errors.New("unknown settlement batch")
)

// SettlementBatch is one runnable settlement batch.
type SettlementBatch interface {
	Run(ctx context.Context, targetDate time.Time) (*domain.SettlementResult, error)
}

// SettlementRunner guards and records batch runs. Both the HTTP trigger
// and the scheduler go through it, so a manual trigger can never overlap
// a scheduled one.
type SettlementRunner struct {
	batches map[string]SettlementBatch
	report  *ReportUseCase
	locker  RunLocker
	lockTTL time.Duration
	logger  zerolog.Logger
}

// NewSettlementRunner creates a new SettlementRunner.
func NewSettlementRunner(
	loan SettlementBatch,
	savings SettlementBatch,
	report *ReportUseCase,
	locker RunLocker,
	lockTTL time.Duration,
	logger zerolog.Logger,
) *SettlementRunner {
	return &SettlementRunner{
		batches: map[string]SettlementBatch{
			BatchLoan:    loan,
			BatchSavings: savings,
		},
		report:  report,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// RunBatch executes one batch under its run lock and records the result.
func (r *SettlementRunner) RunBatch(ctx context.Context, batch string, targetDate time.Time) (*domain.SettlementResult, error) {
	b, ok := r.batches[batch]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBatch, batch)
	}

	acquired, err := r.locker.Acquire(ctx, batch, r.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		r.logger.Warn().Str("batch", batch).Msg("run lock held, skipping batch")
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := r.locker.Release(ctx, batch); err != nil {
			r.logger.Error().Err(err).Str("batch", batch).Msg("failed to release run lock")
		}
	}()

	result, err := b.Run(ctx, targetDate)
	if err != nil {
		return nil, err
	}

	r.report.Record(ctx, result)

	return result, nil
}
