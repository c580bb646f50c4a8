package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hanaplan/settled/internal/domain"
	"github.com/hanaplan/settled/internal/usecase"
	"github.com/hanaplan/settled/internal/usecase/mocks"
)

func newTransferFixture() (*usecase.TransferUseCase, *mocks.MockAccountRepository, *mocks.MockHistoryRepository) {
	accountRepo := mocks.NewMockAccountRepository()
	historyRepo := mocks.NewMockHistoryRepository()
	uc := usecase.NewTransferUseCase(
		mocks.NewMockTransactionManager(),
		accountRepo,
		historyRepo,
		mocks.NewMockIDGenerator(),
		mocks.NewMockRetrier(),
	)
	return uc, accountRepo, historyRepo
}

func activeAccount(id string, accountType domain.AccountType, balance int64) *domain.Account {
	return &domain.Account{
		ID:      id,
		UserID:  "user-" + id,
		Type:    accountType,
		Balance: decimal.NewFromInt(balance),
		Status:  domain.AccountStatusActive,
	}
}

func TestTransferUseCase_Execute(t *testing.T) {
	uc, accountRepo, historyRepo := newTransferFixture()
	accountRepo.Seed(
		activeAccount("acc-1", domain.AccountTypeOrdinary, 1_000_000),
		activeAccount("acc-2", domain.AccountTypeLoan, 0),
	)

	receipt, err := uc.Execute(context.Background(), usecase.TransferInput{
		FromAccountID:    "acc-1",
		ToAccountID:      "acc-2",
		Amount:           decimal.NewFromInt(300_000),
		DebitType:        domain.TxnWithdrawal,
		CreditType:       domain.TxnLoanIn,
		DebitDescription: "installment",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !receipt.FromBalanceAfter.Equal(decimal.NewFromInt(700_000)) {
		t.Errorf("expected from balance 700000, got %s", receipt.FromBalanceAfter)
	}
	if !receipt.ToBalanceAfter.Equal(decimal.NewFromInt(300_000)) {
		t.Errorf("expected to balance 300000, got %s", receipt.ToBalanceAfter)
	}
	if receipt.DebitTxnID == "" || receipt.CreditTxnID == "" || receipt.DebitTxnID == receipt.CreditTxnID {
		t.Errorf("expected distinct ledger entry IDs, got %q and %q", receipt.DebitTxnID, receipt.CreditTxnID)
	}

	entries := historyRepo.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	debit, credit := entries[0], entries[1]
	if !debit.Amount.Equal(decimal.NewFromInt(-300_000)) {
		t.Errorf("expected debit amount -300000, got %s", debit.Amount)
	}
	if !debit.BalanceAfter.Equal(decimal.NewFromInt(700_000)) {
		t.Errorf("expected debit balance snapshot 700000, got %s", debit.BalanceAfter)
	}
	if !credit.Amount.Equal(decimal.NewFromInt(300_000)) {
		t.Errorf("expected credit amount 300000, got %s", credit.Amount)
	}
	if !credit.BalanceAfter.Equal(decimal.NewFromInt(300_000)) {
		t.Errorf("expected credit balance snapshot 300000, got %s", credit.BalanceAfter)
	}

	from, _ := accountRepo.GetByID(context.Background(), "acc-1")
	to, _ := accountRepo.GetByID(context.Background(), "acc-2")
	if !from.Balance.Equal(decimal.NewFromInt(700_000)) || !to.Balance.Equal(decimal.NewFromInt(300_000)) {
		t.Errorf("expected persisted balances 700000/300000, got %s/%s", from.Balance, to.Balance)
	}
}

func TestTransferUseCase_InsufficientFunds(t *testing.T) {
	uc, accountRepo, historyRepo := newTransferFixture()
	accountRepo.Seed(
		activeAccount("acc-1", domain.AccountTypeOrdinary, 100_000),
		activeAccount("acc-2", domain.AccountTypeLoan, 0),
	)

	_, err := uc.Execute(context.Background(), usecase.TransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(500_000),
		DebitType:     domain.TxnWithdrawal,
		CreditType:    domain.TxnLoanIn,
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	var insufficient *domain.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected *InsufficientFundsError, got %T", err)
	}
	if !insufficient.Shortfall().Equal(decimal.NewFromInt(400_000)) {
		t.Errorf("expected shortfall 400000, got %s", insufficient.Shortfall())
	}

	if len(historyRepo.Entries()) != 0 {
		t.Errorf("expected no ledger entries after rejected transfer")
	}
	from, _ := accountRepo.GetByID(context.Background(), "acc-1")
	if !from.Balance.Equal(decimal.NewFromInt(100_000)) {
		t.Errorf("expected balance unchanged at 100000, got %s", from.Balance)
	}
}

func TestTransferUseCase_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.TransferInput
		wantErr error
	}{
		{
			name: "same account",
			input: usecase.TransferInput{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-1",
				Amount:        decimal.NewFromInt(100),
			},
			wantErr: domain.ErrSameAccount,
		},
		{
			name: "zero amount",
			input: usecase.TransferInput{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.Zero,
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			input: usecase.TransferInput{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.NewFromInt(-100),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "missing account",
			input: usecase.TransferInput{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-missing",
				Amount:        decimal.NewFromInt(100),
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, accountRepo, _ := newTransferFixture()
			accountRepo.Seed(
				activeAccount("acc-1", domain.AccountTypeOrdinary, 1_000_000),
				activeAccount("acc-2", domain.AccountTypeOrdinary, 0),
			)

			_, err := uc.Execute(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTransferUseCase_InactiveAccount(t *testing.T) {
	uc, accountRepo, _ := newTransferFixture()
	from := activeAccount("acc-1", domain.AccountTypeOrdinary, 1_000_000)
	from.Status = domain.AccountStatusInactive
	accountRepo.Seed(from, activeAccount("acc-2", domain.AccountTypeOrdinary, 0))

	_, err := uc.Execute(context.Background(), usecase.TransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(100),
	})
	if !errors.Is(err, domain.ErrAccountInactive) {
		t.Errorf("expected ErrAccountInactive, got %v", err)
	}
}

func TestTransferUseCase_RetriesTransientErrors(t *testing.T) {
	uc, accountRepo, _ := newTransferFixture()
	accountRepo.Seed(
		activeAccount("acc-1", domain.AccountTypeOrdinary, 1_000_000),
		activeAccount("acc-2", domain.AccountTypeOrdinary, 0),
	)

	transient := errors.New("deadlock detected")
	attempts := 0
	accountRepo.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
		attempts++
		if attempts < 3 {
			return nil, transient
		}
		accountRepo.GetByIDsForUpdateFunc = nil
		return accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	}

	retrier := mocks.NewMockRetrier()
	retrier.RetryFunc = func(ctx context.Context, operation func() error) error {
		var err error
		for i := 0; i < 5; i++ {
			if err = operation(); err == nil || !errors.Is(err, transient) {
				return err
			}
		}
		return err
	}
	uc = usecase.NewTransferUseCase(
		mocks.NewMockTransactionManager(),
		accountRepo,
		mocks.NewMockHistoryRepository(),
		mocks.NewMockIDGenerator(),
		retrier,
	)

	receipt, err := uc.Execute(context.Background(), usecase.TransferInput{
		FromAccountID: "acc-1",
		ToAccountID:   "acc-2",
		Amount:        decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !receipt.FromBalanceAfter.Equal(decimal.NewFromInt(999_900)) {
		t.Errorf("expected from balance 999900, got %s", receipt.FromBalanceAfter)
	}
}
