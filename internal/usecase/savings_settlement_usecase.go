package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hanaplan/settled/internal/domain"
)

// SavingsSettlementUseCase settles due savings contributions. Joint
// accounts split each contribution across participants by contribution
// rate; every participant's transfer is independent, so one unfunded
// participant never blocks the others. A schedule row is marked paid only
// once every participant has a recorded contribution, which is also what
// keeps retries from re-charging participants that already paid.
type SavingsSettlementUseCase struct {
	accountRepo     AccountRepository
	participantRepo ParticipantRepository
	savingsRepo     SavingsRepository
	transfer        TransferExecutor
	idGen           IDGenerator
	logger          zerolog.Logger
}

// NewSavingsSettlementUseCase creates a new SavingsSettlementUseCase.
func NewSavingsSettlementUseCase(
	accountRepo AccountRepository,
	participantRepo ParticipantRepository,
	savingsRepo SavingsRepository,
	transfer TransferExecutor,
	idGen IDGenerator,
	logger zerolog.Logger,
) *SavingsSettlementUseCase {
	return &SavingsSettlementUseCase{
		accountRepo:     accountRepo,
		participantRepo: participantRepo,
		savingsRepo:     savingsRepo,
		transfer:        transfer,
		idGen:           idGen,
		logger:          logger,
	}
}

// Run settles all due contribution rows for savings and joint savings
// accounts. An error is returned only when account enumeration fails;
// everything per account, row or participant lands in the result buckets.
func (uc *SavingsSettlementUseCase) Run(ctx context.Context, targetDate time.Time) (*domain.SettlementResult, error) {
	targetDate = truncateToDay(targetDate)
	result := domain.NewSettlementResult(BatchSavings, targetDate)

	uc.logger.Info().Time("target_date", targetDate).Msg("savings settlement started")

	if n, err := uc.savingsRepo.MarkOverdue(ctx, targetDate); err != nil {
		uc.logger.Warn().Err(err).Msg("overdue reclassification failed")
	} else if n > 0 {
		uc.logger.Info().Int64("rows", n).Msg("contribution rows marked overdue")
	}

	accounts, err := uc.listSavingsAccounts(ctx)
	if err != nil {
		return nil, err
	}

	for _, account := range accounts {
		if err := uc.settleAccount(ctx, account, targetDate, result); err != nil {
			uc.logger.Error().Err(err).Str("account_id", account.ID).Msg("savings account settlement failed")
			result.AddError(domain.Outcome{ToAccountID: account.ID, Reason: err.Error()})
		}
	}

	uc.logger.Info().
		Int("success", result.SuccessCount()).
		Int("failure", result.FailureCount()).
		Int("error", result.ErrorCount()).
		Str("total_amount", result.TotalAmount.String()).
		Msg("savings settlement finished")

	return result, nil
}

func (uc *SavingsSettlementUseCase) listSavingsAccounts(ctx context.Context) ([]*domain.Account, error) {
	joint, err := uc.accountRepo.ListByType(ctx, domain.AccountTypeJointSaving)
	if err != nil {
		return nil, fmt.Errorf("list joint savings accounts: %w", err)
	}

	single, err := uc.accountRepo.ListByType(ctx, domain.AccountTypeSaving)
	if err != nil {
		return nil, fmt.Errorf("list savings accounts: %w", err)
	}

	return append(joint, single...), nil
}

func (uc *SavingsSettlementUseCase) settleAccount(
	ctx context.Context,
	account *domain.Account,
	targetDate time.Time,
	result *domain.SettlementResult,
) error {
	rows, err := uc.savingsRepo.ListDueSchedules(ctx, account.ID, targetDate)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	participants, err := uc.participantsFor(ctx, account)
	if err != nil {
		return err
	}

	for _, row := range rows {
		uc.settleRow(ctx, account, participants, row, result)
	}

	return nil
}

// participantsFor returns the contributing participants of the account.
// An ordinary savings account settles as its owner at a 100% rate.
func (uc *SavingsSettlementUseCase) participantsFor(ctx context.Context, account *domain.Account) ([]*domain.AccountParticipant, error) {
	if account.Type != domain.AccountTypeJointSaving {
		return []*domain.AccountParticipant{{
			ParticipantID:    account.UserID,
			AccountID:        account.ID,
			UserID:           account.UserID,
			Role:             domain.RolePrimary,
			ContributionRate: decimal.NewFromInt(100),
		}}, nil
	}

	participants, err := uc.participantRepo.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if err := domain.ValidateContributionRates(participants); err != nil {
		return nil, err
	}

	return participants, nil
}

func (uc *SavingsSettlementUseCase) settleRow(
	ctx context.Context,
	account *domain.Account,
	participants []*domain.AccountParticipant,
	row *domain.PaymentSchedule,
	result *domain.SettlementResult,
) {
	claimed, err := uc.savingsRepo.ClaimSchedule(ctx, row.PaymentID)
	if err != nil {
		result.AddError(domain.Outcome{ScheduleID: row.PaymentID, ToAccountID: account.ID, Reason: err.Error()})
		return
	}
	if !claimed {
		uc.logger.Info().Str("payment_id", row.PaymentID).Msg("contribution row not claimable, skipping")
		return
	}

	shares, err := domain.SplitContribution(row.Amount, participants)
	if err != nil {
		uc.releaseRow(ctx, row, row.Status)
		result.AddError(domain.Outcome{ScheduleID: row.PaymentID, ToAccountID: account.ID, Reason: err.Error()})
		return
	}

	settled, err := uc.settledParticipants(ctx, row.PaymentID)
	if err != nil {
		uc.releaseRow(ctx, row, row.Status)
		result.AddError(domain.Outcome{ScheduleID: row.PaymentID, ToAccountID: account.ID, Reason: err.Error()})
		return
	}

	allPaid := true
	for _, share := range shares {
		if settled[share.Participant.ParticipantID] {
			continue
		}
		if !uc.settleShare(ctx, account, row, share, result) {
			allPaid = false
		}
	}

	if allPaid {
		if err := uc.savingsRepo.MarkSchedulePaid(ctx, row.PaymentID, time.Now().UTC()); err != nil {
			uc.logger.Error().Err(err).Str("payment_id", row.PaymentID).Msg("all shares settled but row not marked paid")
		}
		return
	}

	// Partially settled rows go back so the unfunded shares retry next run.
	uc.releaseRow(ctx, row, row.Status)
}

// settleShare settles one participant's share and reports whether it is
// now covered by a contribution record.
func (uc *SavingsSettlementUseCase) settleShare(
	ctx context.Context,
	account *domain.Account,
	row *domain.PaymentSchedule,
	share domain.ContributionShare,
	result *domain.SettlementResult,
) bool {
	p := share.Participant
	outcome := domain.Outcome{
		ScheduleID:    row.PaymentID,
		ParticipantID: p.ParticipantID,
		UserID:        p.UserID,
		ToAccountID:   account.ID,
		Amount:        share.Amount,
	}

	subscription, err := uc.savingsRepo.GetSubscription(ctx, account.ID, p.UserID)
	if err != nil {
		outcome.Reason = err.Error()
		result.AddError(outcome)
		return false
	}
	if subscription.AutoDebitAccountID == "" {
		outcome.Reason = domain.ErrNoAutoDebitAccount.Error()
		result.AddError(outcome)
		return false
	}
	outcome.FromAccountID = subscription.AutoDebitAccountID

	receipt, err := uc.transfer.Execute(ctx, TransferInput{
		FromAccountID:     subscription.AutoDebitAccountID,
		ToAccountID:       account.ID,
		Amount:            share.Amount,
		DebitType:         domain.TxnWithdrawal,
		CreditType:        domain.TxnDeposit,
		DebitDescription:  fmt.Sprintf("savings contribution to account %s", account.AccountNum),
		CreditDescription: fmt.Sprintf("savings contribution from user %s", p.UserID),
	})
	if err != nil {
		outcome.Reason = err.Error()

		var insufficient *domain.InsufficientFundsError
		if errors.As(err, &insufficient) {
			outcome.Shortfall = insufficient.Shortfall()
			uc.logger.Warn().
				Str("payment_id", row.PaymentID).
				Str("user_id", p.UserID).
				Str("shortfall", outcome.Shortfall.String()).
				Msg("contribution failed: insufficient funds")
			result.AddFailure(outcome)
			return false
		}

		uc.logger.Error().Err(err).
			Str("payment_id", row.PaymentID).
			Str("user_id", p.UserID).
			Msg("contribution transfer failed")
		result.AddError(outcome)
		return false
	}

	outcome.FromBalanceAfter = receipt.FromBalanceAfter
	outcome.ToBalanceAfter = receipt.ToBalanceAfter
	outcome.DebitTxnID = receipt.DebitTxnID
	outcome.CreditTxnID = receipt.CreditTxnID

	now := time.Now().UTC()
	contribution := &domain.SavingsContribution{
		ContributionID: uc.idGen.Generate(),
		PaymentID:      row.PaymentID,
		ParticipantID:  p.ParticipantID,
		UserID:         p.UserID,
		Amount:         share.Amount,
		DebitTxnID:     receipt.DebitTxnID,
		CreditTxnID:    receipt.CreditTxnID,
		PaidAt:         now,
	}
	if err := uc.savingsRepo.CreateContribution(ctx, contribution); err != nil {
		// Money already moved; without the marker a retry would recharge,
		// so surface this as an error and keep the row unsettled.
		uc.logger.Error().Err(err).
			Str("payment_id", row.PaymentID).
			Str("participant_id", p.ParticipantID).
			Msg("transfer settled but contribution record not written")
		outcome.Reason = fmt.Sprintf("settled but contribution record not written: %v", err)
		result.AddError(outcome)
		return false
	}

	uc.logger.Info().
		Str("payment_id", row.PaymentID).
		Str("user_id", p.UserID).
		Str("amount", share.Amount.String()).
		Msg("contribution settled")

	result.AddSuccess(outcome)

	return true
}

func (uc *SavingsSettlementUseCase) settledParticipants(ctx context.Context, paymentID string) (map[string]bool, error) {
	contributions, err := uc.savingsRepo.ListContributions(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}

	settled := make(map[string]bool, len(contributions))
	for _, c := range contributions {
		settled[c.ParticipantID] = true
	}

	return settled, nil
}

func (uc *SavingsSettlementUseCase) releaseRow(ctx context.Context, row *domain.PaymentSchedule, status domain.PaymentStatus) {
	if err := uc.savingsRepo.ReleaseSchedule(ctx, row.PaymentID, status); err != nil {
		uc.logger.Error().Err(err).Str("payment_id", row.PaymentID).Msg("failed to release claimed row")
	}
}
