package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/hanaplan/settled/internal/domain"
	"github.com/hanaplan/settled/internal/usecase"
	"github.com/hanaplan/settled/internal/usecase/mocks"
)

type loanFixture struct {
	uc           *usecase.LoanSettlementUseCase
	accountRepo  *mocks.MockAccountRepository
	scheduleRepo *mocks.MockRepaymentScheduleRepository
	contractRepo *mocks.MockLoanContractRepository
}

// newLoanFixture wires the batch over a real transfer use case so money
// actually moves between the mock accounts.
func newLoanFixture(t *testing.T, contracts ...*domain.LoanContract) *loanFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	accountRepo := mocks.NewMockAccountRepository()
	scheduleRepo := mocks.NewMockRepaymentScheduleRepository()
	contractRepo := mocks.NewMockLoanContractRepository(ctrl)
	contractRepo.EXPECT().ListSettleable(gomock.Any()).Return(contracts, nil).AnyTimes()

	transfer := usecase.NewTransferUseCase(
		mocks.NewMockTransactionManager(),
		accountRepo,
		mocks.NewMockHistoryRepository(),
		mocks.NewMockIDGenerator(),
		mocks.NewMockRetrier(),
	)

	return &loanFixture{
		uc:           usecase.NewLoanSettlementUseCase(contractRepo, scheduleRepo, transfer, zerolog.Nop()),
		accountRepo:  accountRepo,
		scheduleRepo: scheduleRepo,
		contractRepo: contractRepo,
	}
}

func loanContract(loanID, disburseID, loanAccountID string) *domain.LoanContract {
	return &domain.LoanContract{
		LoanID:            loanID,
		UserID:            "user-" + loanID,
		DisburseAccountID: disburseID,
		LoanAccountID:     loanAccountID,
		Status:            domain.ContractStatusDisbursed,
	}
}

func repaymentRow(repayID, loanID string, due time.Time, totalDue int64) *domain.LoanRepaymentSchedule {
	return &domain.LoanRepaymentSchedule{
		RepayID:  repayID,
		LoanID:   loanID,
		DueDate:  due,
		TotalDue: decimal.NewFromInt(totalDue),
		Status:   domain.RepaymentPending,
	}
}

func TestLoanSettlement_SettlesDueRow(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fx := newLoanFixture(t, loanContract("loan-1", "acc-d", "acc-l"))
	fx.accountRepo.Seed(
		activeAccount("acc-d", domain.AccountTypeOrdinary, 1_000_000),
		activeAccount("acc-l", domain.AccountTypeLoan, 0),
	)
	fx.scheduleRepo.Seed(repaymentRow("repay-1", "loan-1", target, 500_000))

	result, err := fx.uc.Run(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SuccessCount() != 1 || result.FailureCount() != 0 || result.ErrorCount() != 0 {
		t.Fatalf("expected 1/0/0, got %d/%d/%d",
			result.SuccessCount(), result.FailureCount(), result.ErrorCount())
	}
	if !result.TotalAmount.Equal(decimal.NewFromInt(500_000)) {
		t.Errorf("expected total 500000, got %s", result.TotalAmount)
	}

	outcome := result.Successes[0]
	if !outcome.FromBalanceAfter.Equal(decimal.NewFromInt(500_000)) {
		t.Errorf("expected disburse balance 500000, got %s", outcome.FromBalanceAfter)
	}
	if !outcome.ToBalanceAfter.Equal(decimal.NewFromInt(500_000)) {
		t.Errorf("expected loan account balance 500000, got %s", outcome.ToBalanceAfter)
	}

	row := fx.scheduleRepo.Row("repay-1")
	if row.Status != domain.RepaymentPaid {
		t.Errorf("expected row paid, got %s", row.Status)
	}
	if row.PaidAt == nil {
		t.Errorf("expected paid_at to be set")
	}
}

func TestLoanSettlement_InsufficientFundsIsFailure(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fx := newLoanFixture(t, loanContract("loan-1", "acc-d", "acc-l"))
	fx.accountRepo.Seed(
		activeAccount("acc-d", domain.AccountTypeOrdinary, 100_000),
		activeAccount("acc-l", domain.AccountTypeLoan, 0),
	)
	fx.scheduleRepo.Seed(repaymentRow("repay-1", "loan-1", target, 500_000))

	result, err := fx.uc.Run(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FailureCount() != 1 || result.SuccessCount() != 0 {
		t.Fatalf("expected 0/1/0, got %d/%d/%d",
			result.SuccessCount(), result.FailureCount(), result.ErrorCount())
	}
	if !result.Failures[0].Shortfall.Equal(decimal.NewFromInt(400_000)) {
		t.Errorf("expected shortfall 400000, got %s", result.Failures[0].Shortfall)
	}

	// The claimed row goes back so the next run retries it.
	if row := fx.scheduleRepo.Row("repay-1"); row.Status != domain.RepaymentPending {
		t.Errorf("expected row released to pending, got %s", row.Status)
	}
	from, _ := fx.accountRepo.GetByID(context.Background(), "acc-d")
	if !from.Balance.Equal(decimal.NewFromInt(100_000)) {
		t.Errorf("expected balance unchanged at 100000, got %s", from.Balance)
	}
}

func TestLoanSettlement_OneRowFailureDoesNotAbortRun(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fx := newLoanFixture(t,
		loanContract("loan-1", "acc-d1", "acc-l1"),
		loanContract("loan-2", "acc-d2", "acc-l2"),
	)
	fx.accountRepo.Seed(
		activeAccount("acc-d1", domain.AccountTypeOrdinary, 0),
		activeAccount("acc-l1", domain.AccountTypeLoan, 0),
		activeAccount("acc-d2", domain.AccountTypeOrdinary, 1_000_000),
		activeAccount("acc-l2", domain.AccountTypeLoan, 0),
	)
	fx.scheduleRepo.Seed(
		repaymentRow("repay-1", "loan-1", target, 300_000),
		repaymentRow("repay-2", "loan-2", target, 300_000),
	)

	result, err := fx.uc.Run(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SuccessCount() != 1 || result.FailureCount() != 1 {
		t.Fatalf("expected 1/1/0, got %d/%d/%d",
			result.SuccessCount(), result.FailureCount(), result.ErrorCount())
	}
	if fx.scheduleRepo.Row("repay-2").Status != domain.RepaymentPaid {
		t.Errorf("expected funded row paid, got %s", fx.scheduleRepo.Row("repay-2").Status)
	}
	if fx.scheduleRepo.Row("repay-1").Status != domain.RepaymentPending {
		t.Errorf("expected unfunded row pending, got %s", fx.scheduleRepo.Row("repay-1").Status)
	}
}

func TestLoanSettlement_SkipsRowsNotYetDue(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fx := newLoanFixture(t, loanContract("loan-1", "acc-d", "acc-l"))
	fx.accountRepo.Seed(
		activeAccount("acc-d", domain.AccountTypeOrdinary, 1_000_000),
		activeAccount("acc-l", domain.AccountTypeLoan, 0),
	)
	fx.scheduleRepo.Seed(repaymentRow("repay-future", "loan-1", target.AddDate(0, 1, 0), 500_000))

	result, err := fx.uc.Run(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Outcomes()) != 0 {
		t.Errorf("expected no outcomes for a future row, got %d", len(result.Outcomes()))
	}
	if row := fx.scheduleRepo.Row("repay-future"); row.Status != domain.RepaymentPending {
		t.Errorf("expected future row untouched, got %s", row.Status)
	}
}

func TestLoanSettlement_OverdueRowIsStillSettled(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fx := newLoanFixture(t, loanContract("loan-1", "acc-d", "acc-l"))
	fx.accountRepo.Seed(
		activeAccount("acc-d", domain.AccountTypeOrdinary, 1_000_000),
		activeAccount("acc-l", domain.AccountTypeLoan, 0),
	)
	// Past due and still pending; the run reclassifies then settles it.
	fx.scheduleRepo.Seed(repaymentRow("repay-old", "loan-1", target.AddDate(0, -1, 0), 500_000))

	result, err := fx.uc.Run(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SuccessCount() != 1 {
		t.Fatalf("expected overdue row settled, got %d/%d/%d",
			result.SuccessCount(), result.FailureCount(), result.ErrorCount())
	}
	if row := fx.scheduleRepo.Row("repay-old"); row.Status != domain.RepaymentPaid {
		t.Errorf("expected row paid, got %s", row.Status)
	}
}

func TestLoanSettlement_UnclaimableRowIsSkipped(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fx := newLoanFixture(t, loanContract("loan-1", "acc-d", "acc-l"))
	fx.accountRepo.Seed(
		activeAccount("acc-d", domain.AccountTypeOrdinary, 1_000_000),
		activeAccount("acc-l", domain.AccountTypeLoan, 0),
	)
	fx.scheduleRepo.Seed(repaymentRow("repay-1", "loan-1", target, 500_000))
	fx.scheduleRepo.ClaimFunc = func(ctx context.Context, repayID string) (bool, error) {
		return false, nil
	}

	result, err := fx.uc.Run(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Outcomes()) != 0 {
		t.Errorf("expected contested row to produce no outcome, got %d", len(result.Outcomes()))
	}
	from, _ := fx.accountRepo.GetByID(context.Background(), "acc-d")
	if !from.Balance.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("expected no money moved, balance %s", from.Balance)
	}
}

func TestLoanSettlement_MarkPaidFailureIsError(t *testing.T) {
	target := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	fx := newLoanFixture(t, loanContract("loan-1", "acc-d", "acc-l"))
	fx.accountRepo.Seed(
		activeAccount("acc-d", domain.AccountTypeOrdinary, 1_000_000),
		activeAccount("acc-l", domain.AccountTypeLoan, 0),
	)
	fx.scheduleRepo.Seed(repaymentRow("repay-1", "loan-1", target, 500_000))
	fx.scheduleRepo.MarkPaidFunc = func(ctx context.Context, repayID string, paidAt time.Time) error {
		return context.DeadlineExceeded
	}

	result, err := fx.uc.Run(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ErrorCount() != 1 || result.SuccessCount() != 0 {
		t.Fatalf("expected the row to land in errors, got %d/%d/%d",
			result.SuccessCount(), result.FailureCount(), result.ErrorCount())
	}
}
