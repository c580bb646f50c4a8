package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hanaplan/settled/internal/domain"
	"github.com/hanaplan/settled/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	ListByTypeFunc        func(ctx context.Context, accountType domain.AccountType) ([]*domain.Account, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed loads accounts into the backing map.
func (m *MockAccountRepository) Seed(accounts ...*domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range accounts {
		m.accounts[acc.ID] = acc
	}
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) ListByType(ctx context.Context, accountType domain.AccountType) ([]*domain.Account, error) {
	if m.ListByTypeFunc != nil {
		return m.ListByTypeFunc(ctx, accountType)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.Type == accountType {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.UpdatedAt = updatedAt
	}
	return nil
}

// MockHistoryRepository is a mock implementation of HistoryRepository.
type MockHistoryRepository struct {
	mu      sync.RWMutex
	entries []*domain.TransactionHistory

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionHistory) error
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionHistory, error)
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

func (m *MockHistoryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionHistory) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockHistoryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionHistory, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.TransactionHistory
	for _, e := range m.entries {
		if e.AccountID == accountID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Entries returns everything written so far.
func (m *MockHistoryRepository) Entries() []*domain.TransactionHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.TransactionHistory(nil), m.entries...)
}

// MockRepaymentScheduleRepository is a mock implementation of
// RepaymentScheduleRepository.
type MockRepaymentScheduleRepository struct {
	mu   sync.RWMutex
	rows map[string]*domain.LoanRepaymentSchedule

	ListDueFunc     func(ctx context.Context, loanID string, dueOnOrBefore time.Time) ([]*domain.LoanRepaymentSchedule, error)
	ClaimFunc       func(ctx context.Context, repayID string) (bool, error)
	ReleaseFunc     func(ctx context.Context, repayID string, status domain.RepaymentStatus) error
	MarkPaidFunc    func(ctx context.Context, repayID string, paidAt time.Time) error
	MarkOverdueFunc func(ctx context.Context, before time.Time) (int64, error)
}

func NewMockRepaymentScheduleRepository() *MockRepaymentScheduleRepository {
	return &MockRepaymentScheduleRepository{
		rows: make(map[string]*domain.LoanRepaymentSchedule),
	}
}

func (m *MockRepaymentScheduleRepository) Seed(rows ...*domain.LoanRepaymentSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.rows[row.RepayID] = row
	}
}

// Row returns the stored row, for status assertions.
func (m *MockRepaymentScheduleRepository) Row(repayID string) *domain.LoanRepaymentSchedule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows[repayID]
}

func (m *MockRepaymentScheduleRepository) ListDue(ctx context.Context, loanID string, dueOnOrBefore time.Time) ([]*domain.LoanRepaymentSchedule, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, loanID, dueOnOrBefore)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []*domain.LoanRepaymentSchedule
	for _, row := range m.rows {
		if row.LoanID == loanID && row.IsDue(dueOnOrBefore) {
			snapshot := *row
			rows = append(rows, &snapshot)
		}
	}
	return rows, nil
}

func (m *MockRepaymentScheduleRepository) Claim(ctx context.Context, repayID string) (bool, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, repayID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[repayID]
	if !ok {
		return false, domain.ErrScheduleNotFound
	}
	if row.Status != domain.RepaymentPending && row.Status != domain.RepaymentOverdue {
		return false, nil
	}
	row.Status = domain.RepaymentInProgress
	return true, nil
}

func (m *MockRepaymentScheduleRepository) Release(ctx context.Context, repayID string, status domain.RepaymentStatus) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, repayID, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[repayID]; ok {
		row.Status = status
	}
	return nil
}

func (m *MockRepaymentScheduleRepository) MarkPaid(ctx context.Context, repayID string, paidAt time.Time) error {
	if m.MarkPaidFunc != nil {
		return m.MarkPaidFunc(ctx, repayID, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[repayID]; ok {
		row.Status = domain.RepaymentPaid
		row.PaidAt = &paidAt
	}
	return nil
}

func (m *MockRepaymentScheduleRepository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	if m.MarkOverdueFunc != nil {
		return m.MarkOverdueFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if row.Status == domain.RepaymentPending && row.DueDate.Before(before) {
			row.Status = domain.RepaymentOverdue
			n++
		}
	}
	return n, nil
}

// MockSavingsRepository is a mock implementation of SavingsRepository.
type MockSavingsRepository struct {
	mu            sync.RWMutex
	subscriptions map[string]*domain.UserSavings
	schedules     map[string]*domain.PaymentSchedule
	contributions map[string][]*domain.SavingsContribution

	GetSubscriptionFunc    func(ctx context.Context, accountID, userID string) (*domain.UserSavings, error)
	ListDueSchedulesFunc   func(ctx context.Context, accountID string, dueOnOrBefore time.Time) ([]*domain.PaymentSchedule, error)
	ClaimScheduleFunc      func(ctx context.Context, paymentID string) (bool, error)
	ReleaseScheduleFunc    func(ctx context.Context, paymentID string, status domain.PaymentStatus) error
	MarkSchedulePaidFunc   func(ctx context.Context, paymentID string, paidAt time.Time) error
	MarkOverdueFunc        func(ctx context.Context, before time.Time) (int64, error)
	CreateContributionFunc func(ctx context.Context, contribution *domain.SavingsContribution) error
	ListContributionsFunc  func(ctx context.Context, paymentID string) ([]*domain.SavingsContribution, error)
}

func NewMockSavingsRepository() *MockSavingsRepository {
	return &MockSavingsRepository{
		subscriptions: make(map[string]*domain.UserSavings),
		schedules:     make(map[string]*domain.PaymentSchedule),
		contributions: make(map[string][]*domain.SavingsContribution),
	}
}

func subscriptionKey(accountID, userID string) string {
	return accountID + "/" + userID
}

func (m *MockSavingsRepository) SeedSubscriptions(subs ...*domain.UserSavings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range subs {
		m.subscriptions[subscriptionKey(s.AccountID, s.UserID)] = s
	}
}

func (m *MockSavingsRepository) SeedSchedules(rows ...*domain.PaymentSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.schedules[row.PaymentID] = row
	}
}

// Schedule returns the stored row, for status assertions.
func (m *MockSavingsRepository) Schedule(paymentID string) *domain.PaymentSchedule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schedules[paymentID]
}

func (m *MockSavingsRepository) GetSubscription(ctx context.Context, accountID, userID string) (*domain.UserSavings, error) {
	if m.GetSubscriptionFunc != nil {
		return m.GetSubscriptionFunc(ctx, accountID, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.subscriptions[subscriptionKey(accountID, userID)]; ok {
		return s, nil
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (m *MockSavingsRepository) ListDueSchedules(ctx context.Context, accountID string, dueOnOrBefore time.Time) ([]*domain.PaymentSchedule, error) {
	if m.ListDueSchedulesFunc != nil {
		return m.ListDueSchedulesFunc(ctx, accountID, dueOnOrBefore)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []*domain.PaymentSchedule
	for _, row := range m.schedules {
		if row.AccountID == accountID && row.IsDue(dueOnOrBefore) {
			snapshot := *row
			rows = append(rows, &snapshot)
		}
	}
	return rows, nil
}

func (m *MockSavingsRepository) ClaimSchedule(ctx context.Context, paymentID string) (bool, error) {
	if m.ClaimScheduleFunc != nil {
		return m.ClaimScheduleFunc(ctx, paymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.schedules[paymentID]
	if !ok {
		return false, domain.ErrScheduleNotFound
	}
	if row.Status != domain.PaymentPending && row.Status != domain.PaymentOverdue {
		return false, nil
	}
	row.Status = domain.PaymentInProgress
	return true, nil
}

func (m *MockSavingsRepository) ReleaseSchedule(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	if m.ReleaseScheduleFunc != nil {
		return m.ReleaseScheduleFunc(ctx, paymentID, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.schedules[paymentID]; ok {
		row.Status = status
	}
	return nil
}

func (m *MockSavingsRepository) MarkSchedulePaid(ctx context.Context, paymentID string, paidAt time.Time) error {
	if m.MarkSchedulePaidFunc != nil {
		return m.MarkSchedulePaidFunc(ctx, paymentID, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.schedules[paymentID]; ok {
		row.Status = domain.PaymentPaid
		row.PaidAt = &paidAt
	}
	return nil
}

func (m *MockSavingsRepository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	if m.MarkOverdueFunc != nil {
		return m.MarkOverdueFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.schedules {
		if row.Status == domain.PaymentPending && row.DueDate.Before(before) {
			row.Status = domain.PaymentOverdue
			n++
		}
	}
	return n, nil
}

func (m *MockSavingsRepository) CreateContribution(ctx context.Context, contribution *domain.SavingsContribution) error {
	if m.CreateContributionFunc != nil {
		return m.CreateContributionFunc(ctx, contribution)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contributions[contribution.PaymentID] = append(m.contributions[contribution.PaymentID], contribution)
	return nil
}

func (m *MockSavingsRepository) ListContributions(ctx context.Context, paymentID string) ([]*domain.SavingsContribution, error) {
	if m.ListContributionsFunc != nil {
		return m.ListContributionsFunc(ctx, paymentID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.SavingsContribution(nil), m.contributions[paymentID]...), nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRetrier is a mock implementation of Retrier. By default it runs the
// operation exactly once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockTransferExecutor is a mock implementation of TransferExecutor.
type MockTransferExecutor struct {
	mu     sync.Mutex
	inputs []usecase.TransferInput

	ExecuteFunc func(ctx context.Context, input usecase.TransferInput) (*domain.TransferReceipt, error)
}

func NewMockTransferExecutor() *MockTransferExecutor {
	return &MockTransferExecutor{}
}

func (m *MockTransferExecutor) Execute(ctx context.Context, input usecase.TransferInput) (*domain.TransferReceipt, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, input)
	}
	return &domain.TransferReceipt{
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		DebitTxnID:    "mock-debit",
		CreditTxnID:   "mock-credit",
	}, nil
}

// Inputs returns every transfer requested so far.
func (m *MockTransferExecutor) Inputs() []usecase.TransferInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]usecase.TransferInput(nil), m.inputs...)
}

// MockRunLocker is a mock implementation of RunLocker.
type MockRunLocker struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireFunc func(ctx context.Context, batch string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, batch string) error
}

func NewMockRunLocker() *MockRunLocker {
	return &MockRunLocker{
		held: make(map[string]bool),
	}
}

func (m *MockRunLocker) Acquire(ctx context.Context, batch string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, batch, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[batch] {
		return false, nil
	}
	m.held[batch] = true
	return true, nil
}

func (m *MockRunLocker) Release(ctx context.Context, batch string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, batch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, batch)
	return nil
}
