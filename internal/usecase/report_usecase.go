package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hanaplan/settled/internal/domain"
)

// ReportUseCase persists the audit trail of a batch run: one row in the
// run store and one section appended to the per-day result file. Reporting
// never fails the caller; money has already moved by the time a result is
// recorded, so sink problems are logged and swallowed.
type ReportUseCase struct {
	runRepo  RunRepository
	auditDir string
	logger   zerolog.Logger
}

// NewReportUseCase creates a new ReportUseCase. auditDir may be empty to
// disable the file sink.
func NewReportUseCase(runRepo RunRepository, auditDir string, logger zerolog.Logger) *ReportUseCase {
	return &ReportUseCase{
		runRepo:  runRepo,
		auditDir: auditDir,
		logger:   logger,
	}
}

// Record persists the result and returns the run record that was written.
func (uc *ReportUseCase) Record(ctx context.Context, result *domain.SettlementResult) *domain.SettlementRun {
	run := &domain.SettlementRun{
		Batch:        result.Batch,
		ExecutedAt:   result.ExecutedAt,
		TargetDate:   result.TargetDate,
		SuccessCount: result.SuccessCount(),
		FailureCount: result.FailureCount(),
		ErrorCount:   result.ErrorCount(),
		TotalAmount:  result.TotalAmount,
		Outcomes:     result.Outcomes(),
	}

	if err := uc.runRepo.Create(ctx, run); err != nil {
		uc.logger.Error().Err(err).Str("batch", result.Batch).Msg("failed to persist settlement run record")
	}

	if uc.auditDir != "" {
		if err := uc.appendResultFile(result); err != nil {
			uc.logger.Error().Err(err).Str("batch", result.Batch).Msg("failed to append settlement result file")
		}
	}

	return run
}

// ListRuns returns persisted run records, newest first.
func (uc *ReportUseCase) ListRuns(ctx context.Context, limit, offset int) ([]*domain.SettlementRun, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return uc.runRepo.List(ctx, limit, offset)
}

// appendResultFile appends one delimited section per run to the day's
// result file, so a whole day of runs reads top to bottom.
func (uc *ReportUseCase) appendResultFile(result *domain.SettlementResult) error {
	name := fmt.Sprintf("%s_result_%s.txt", result.Batch, result.ExecutedAt.Format("20060102"))
	path := filepath.Join(uc.auditDir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(FormatResult(result))

	return err
}

// FormatResult renders one run as a delimited text section.
func FormatResult(result *domain.SettlementResult) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "%s settlement run\n", result.Batch)
	fmt.Fprintf(&b, "executed_at: %s\n", result.ExecutedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "target_date: %s\n", result.TargetDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "success: %d  failure: %d  error: %d\n", result.SuccessCount(), result.FailureCount(), result.ErrorCount())
	fmt.Fprintf(&b, "total_amount: %s\n", result.TotalAmount)
	fmt.Fprintf(&b, "%s\n", rule)

	if result.SuccessCount() == 0 && result.FailureCount() == 0 && result.ErrorCount() == 0 {
		b.WriteString("no due settlement items\n")
	}

	writeOutcomes(&b, "settled", result.Successes, func(o domain.Outcome) {
		fmt.Fprintf(&b, "  schedule=%s user=%s from=%s to=%s amount=%s\n",
			o.ScheduleID, o.UserID, o.FromAccountID, o.ToAccountID, o.Amount)
		fmt.Fprintf(&b, "    from_balance=%s to_balance=%s debit_txn=%s credit_txn=%s at=%s\n",
			o.FromBalanceAfter, o.ToBalanceAfter, o.DebitTxnID, o.CreditTxnID,
			o.ProcessedAt.Format("2006-01-02 15:04:05"))
	})
	writeOutcomes(&b, "failed", result.Failures, func(o domain.Outcome) {
		fmt.Fprintf(&b, "  schedule=%s from=%s shortfall=%s reason=%s\n",
			o.ScheduleID, o.FromAccountID, o.Shortfall, o.Reason)
	})
	writeOutcomes(&b, "errors", result.Errors, func(o domain.Outcome) {
		fmt.Fprintf(&b, "  schedule=%s loan=%s reason=%s\n", o.ScheduleID, o.LoanID, o.Reason)
	})

	b.WriteString("\n")

	return b.String()
}

func writeOutcomes(b *strings.Builder, header string, outcomes []domain.Outcome, write func(domain.Outcome)) {
	if len(outcomes) == 0 {
		return
	}

	fmt.Fprintf(b, "%s (%d):\n", header, len(outcomes))
	for _, o := range outcomes {
		write(o)
	}
}
