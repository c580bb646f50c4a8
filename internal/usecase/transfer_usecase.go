package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hanaplan/settled/internal/domain"
)

// TransferUseCase moves money between two accounts. It is the only
// component allowed to mutate balances: both balance updates and both
// ledger entries are persisted inside one local transaction, so either the
// whole movement is durable or none of it is.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	historyRepo HistoryRepository
	idGen       IDGenerator
	retrier     Retrier
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	historyRepo HistoryRepository,
	idGen IDGenerator,
	retrier Retrier,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		idGen:       idGen,
		retrier:     retrier,
	}
}

// TransferInput describes one money movement.
type TransferInput struct {
	FromAccountID     string
	ToAccountID       string
	Amount            decimal.Decimal
	DebitType         domain.TxnType
	CreditType        domain.TxnType
	DebitDescription  string
	CreditDescription string
}

// Execute performs the transfer and returns a receipt with both
// post-transfer balances and both ledger entry IDs. On insufficient funds
// it returns *domain.InsufficientFundsError and performs no mutation.
// Transient store errors (deadlock, serialization) are retried as a whole.
func (uc *TransferUseCase) Execute(ctx context.Context, input TransferInput) (*domain.TransferReceipt, error) {
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccount
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	var receipt *domain.TransferReceipt

	err := uc.retrier.Retry(ctx, func() error {
		var err error
		receipt, err = uc.execute(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

func (uc *TransferUseCase) execute(ctx context.Context, input TransferInput) (*domain.TransferReceipt, error) {
	// Lock accounts in sorted ID order so two transfers touching the same
	// pair cannot deadlock.
	ids := []string{input.FromAccountID, input.ToAccountID}
	sort.Strings(ids)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}

	var from, to *domain.Account
	for _, a := range accounts {
		switch a.ID {
		case input.FromAccountID:
			from = a
		case input.ToAccountID:
			to = a
		}
	}
	if from == nil || to == nil {
		return nil, domain.ErrAccountNotFound
	}

	if err := from.ValidateWithdrawal(input.Amount); err != nil {
		if err == domain.ErrInsufficientFunds {
			return nil, &domain.InsufficientFundsError{
				AccountID: from.ID,
				Balance:   from.Balance,
				Requested: input.Amount,
			}
		}
		return nil, err
	}
	if err := to.ValidateDeposit(input.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fromBalance := from.ApplyWithdrawal(input.Amount)
	toBalance := to.ApplyDeposit(input.Amount)

	debit := &domain.TransactionHistory{
		TxnID:        uc.idGen.Generate(),
		AccountID:    from.ID,
		Type:         input.DebitType,
		Amount:       input.Amount.Neg(),
		BalanceAfter: fromBalance,
		Description:  input.DebitDescription,
		TxnDate:      now,
	}
	if err := uc.historyRepo.Create(ctx, tx, debit); err != nil {
		return nil, err
	}
	if err := uc.accountRepo.UpdateBalance(ctx, tx, from.ID, fromBalance, now); err != nil {
		return nil, err
	}

	credit := &domain.TransactionHistory{
		TxnID:        uc.idGen.Generate(),
		AccountID:    to.ID,
		Type:         input.CreditType,
		Amount:       input.Amount,
		BalanceAfter: toBalance,
		Description:  input.CreditDescription,
		TxnDate:      now,
	}
	if err := uc.historyRepo.Create(ctx, tx, credit); err != nil {
		return nil, err
	}
	if err := uc.accountRepo.UpdateBalance(ctx, tx, to.ID, toBalance, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &domain.TransferReceipt{
		FromAccountID:    from.ID,
		ToAccountID:      to.ID,
		Amount:           input.Amount,
		FromBalanceAfter: fromBalance,
		ToBalanceAfter:   toBalance,
		DebitTxnID:       debit.TxnID,
		CreditTxnID:      credit.TxnID,
	}, nil
}
