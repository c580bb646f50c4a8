package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hanaplan/settled/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	ListByType(ctx context.Context, accountType domain.AccountType) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

// HistoryRepository defines data access for ledger entries.
type HistoryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.TransactionHistory) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionHistory, error)
}

// LoanContractRepository defines data access for loan contracts.
type LoanContractRepository interface {
	ListSettleable(ctx context.Context) ([]*domain.LoanContract, error)
}

// RepaymentScheduleRepository defines data access for loan repayment
// schedule rows. Claim is the atomic guard against double settlement: it
// moves a row from pending/overdue to in_progress and reports whether this
// caller won the row.
type RepaymentScheduleRepository interface {
	ListDue(ctx context.Context, loanID string, dueOnOrBefore time.Time) ([]*domain.LoanRepaymentSchedule, error)
	Claim(ctx context.Context, repayID string) (bool, error)
	Release(ctx context.Context, repayID string, status domain.RepaymentStatus) error
	MarkPaid(ctx context.Context, repayID string, paidAt time.Time) error
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
}

// SavingsRepository defines data access for savings subscriptions,
// contribution schedule rows and per-participant contribution markers.
type SavingsRepository interface {
	GetSubscription(ctx context.Context, accountID, userID string) (*domain.UserSavings, error)
	ListDueSchedules(ctx context.Context, accountID string, dueOnOrBefore time.Time) ([]*domain.PaymentSchedule, error)
	ClaimSchedule(ctx context.Context, paymentID string) (bool, error)
	ReleaseSchedule(ctx context.Context, paymentID string, status domain.PaymentStatus) error
	MarkSchedulePaid(ctx context.Context, paymentID string, paidAt time.Time) error
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
	CreateContribution(ctx context.Context, contribution *domain.SavingsContribution) error
	ListContributions(ctx context.Context, paymentID string) ([]*domain.SavingsContribution, error)
}

// ParticipantRepository defines data access for joint account participants.
type ParticipantRepository interface {
	ListByAccount(ctx context.Context, accountID string) ([]*domain.AccountParticipant, error)
}

// RunRepository defines data access for persisted settlement run records.
type RunRepository interface {
	Create(ctx context.Context, run *domain.SettlementRun) error
	List(ctx context.Context, limit, offset int) ([]*domain.SettlementRun, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient store errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// TransferExecutor is the only path allowed to move money between accounts.
type TransferExecutor interface {
	Execute(ctx context.Context, input TransferInput) (*domain.TransferReceipt, error)
}

// RunLocker guards a batch against concurrent invocations across process
// instances. Acquire reports whether this caller holds the batch.
type RunLocker interface {
	Acquire(ctx context.Context, batch string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, batch string) error
}
