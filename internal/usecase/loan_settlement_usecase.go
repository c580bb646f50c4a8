package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hanaplan/settled/internal/domain"
)

// Batch names used for run records, run locks and metrics labels.
const (
	BatchLoan    = "loan"
	BatchSavings = "savings"
)

// LoanSettlementUseCase settles due loan repayments for a target date.
// Rows are processed sequentially, oldest due date first, and one row's
// failure never aborts the run: every row ends up in exactly one of the
// result's success, failure or error buckets.
type LoanSettlementUseCase struct {
	contractRepo LoanContractRepository
	scheduleRepo RepaymentScheduleRepository
	transfer     TransferExecutor
	logger       zerolog.Logger
}

// NewLoanSettlementUseCase creates a new LoanSettlementUseCase.
func NewLoanSettlementUseCase(
	contractRepo LoanContractRepository,
	scheduleRepo RepaymentScheduleRepository,
	transfer TransferExecutor,
	logger zerolog.Logger,
) *LoanSettlementUseCase {
	return &LoanSettlementUseCase{
		contractRepo: contractRepo,
		scheduleRepo: scheduleRepo,
		transfer:     transfer,
		logger:       logger,
	}
}

// Run settles all due repayment rows across settleable contracts.
// An error is returned only when the contract enumeration itself fails;
// per-row problems are captured in the result.
func (uc *LoanSettlementUseCase) Run(ctx context.Context, targetDate time.Time) (*domain.SettlementResult, error) {
	targetDate = truncateToDay(targetDate)
	result := domain.NewSettlementResult(BatchLoan, targetDate)

	uc.logger.Info().Time("target_date", targetDate).Msg("loan settlement started")

	// Reclassify rows whose due date has passed. Never reversed.
	if n, err := uc.scheduleRepo.MarkOverdue(ctx, targetDate); err != nil {
		uc.logger.Warn().Err(err).Msg("overdue reclassification failed")
	} else if n > 0 {
		uc.logger.Info().Int64("rows", n).Msg("repayment rows marked overdue")
	}

	contracts, err := uc.contractRepo.ListSettleable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list loan contracts: %w", err)
	}

	for _, contract := range contracts {
		rows, err := uc.scheduleRepo.ListDue(ctx, contract.LoanID, targetDate)
		if err != nil {
			uc.logger.Error().Err(err).Str("loan_id", contract.LoanID).Msg("failed to list due repayments")
			result.AddError(domain.Outcome{LoanID: contract.LoanID, Reason: err.Error()})
			continue
		}

		for _, row := range rows {
			uc.settleRow(ctx, contract, row, result)
		}
	}

	uc.logger.Info().
		Int("success", result.SuccessCount()).
		Int("failure", result.FailureCount()).
		Int("error", result.ErrorCount()).
		Str("total_amount", result.TotalAmount.String()).
		Msg("loan settlement finished")

	return result, nil
}

func (uc *LoanSettlementUseCase) settleRow(
	ctx context.Context,
	contract *domain.LoanContract,
	row *domain.LoanRepaymentSchedule,
	result *domain.SettlementResult,
) {
	outcome := domain.Outcome{
		ScheduleID:    row.RepayID,
		LoanID:        contract.LoanID,
		UserID:        contract.UserID,
		FromAccountID: contract.DisburseAccountID,
		ToAccountID:   contract.LoanAccountID,
		Amount:        row.TotalDue,
	}

	claimed, err := uc.scheduleRepo.Claim(ctx, row.RepayID)
	if err != nil {
		uc.logger.Error().Err(err).Str("repay_id", row.RepayID).Msg("failed to claim repayment row")
		outcome.Reason = err.Error()
		result.AddError(outcome)
		return
	}
	if !claimed {
		// Another run holds or already settled this row.
		uc.logger.Info().Str("repay_id", row.RepayID).Msg("repayment row not claimable, skipping")
		return
	}

	receipt, err := uc.transfer.Execute(ctx, TransferInput{
		FromAccountID:     contract.DisburseAccountID,
		ToAccountID:       contract.LoanAccountID,
		Amount:            row.TotalDue,
		DebitType:         domain.TxnWithdrawal,
		CreditType:        domain.TxnLoanIn,
		DebitDescription:  fmt.Sprintf("loan installment %s", row.RepayID),
		CreditDescription: fmt.Sprintf("loan repayment received for installment %s", row.RepayID),
	})
	if err != nil {
		uc.releaseRow(ctx, row)
		outcome.Reason = err.Error()

		var insufficient *domain.InsufficientFundsError
		if errors.As(err, &insufficient) {
			outcome.Shortfall = insufficient.Shortfall()
			uc.logger.Warn().
				Str("repay_id", row.RepayID).
				Str("from_account", contract.DisburseAccountID).
				Str("shortfall", outcome.Shortfall.String()).
				Msg("repayment failed: insufficient funds")
			result.AddFailure(outcome)
			return
		}

		uc.logger.Error().Err(err).Str("repay_id", row.RepayID).Msg("repayment transfer failed")
		result.AddError(outcome)
		return
	}

	outcome.FromBalanceAfter = receipt.FromBalanceAfter
	outcome.ToBalanceAfter = receipt.ToBalanceAfter
	outcome.DebitTxnID = receipt.DebitTxnID
	outcome.CreditTxnID = receipt.CreditTxnID

	if err := uc.scheduleRepo.MarkPaid(ctx, row.RepayID, time.Now().UTC()); err != nil {
		// Money already moved; surface loudly instead of retrying.
		uc.logger.Error().Err(err).Str("repay_id", row.RepayID).Msg("transfer settled but row not marked paid")
		outcome.Reason = fmt.Sprintf("settled but failed to mark paid: %v", err)
		result.AddError(outcome)
		return
	}

	uc.logger.Info().
		Str("repay_id", row.RepayID).
		Str("amount", row.TotalDue.String()).
		Str("debit_txn", receipt.DebitTxnID).
		Str("credit_txn", receipt.CreditTxnID).
		Msg("repayment settled")

	result.AddSuccess(outcome)
}

// releaseRow puts a claimed row back to its pre-claim status so the next
// run picks it up again.
func (uc *LoanSettlementUseCase) releaseRow(ctx context.Context, row *domain.LoanRepaymentSchedule) {
	if err := uc.scheduleRepo.Release(ctx, row.RepayID, row.Status); err != nil {
		uc.logger.Error().Err(err).Str("repay_id", row.RepayID).Msg("failed to release claimed row")
	}
}

// truncateToDay drops the time-of-day component; schedule comparisons are
// calendar-date comparisons.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
