package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hanaplan/settled/internal/domain"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	ProductID  string          `json:"product_id"`
	AccountNum string          `json:"account_num"`
	Type       string          `json:"type"`
	Balance    decimal.Decimal `json:"balance"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		ProductID:  a.ProductID,
		AccountNum: a.AccountNum,
		Type:       string(a.Type),
		Balance:    a.Balance,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// HistoryEntryResponse represents one ledger entry in API responses.
type HistoryEntryResponse struct {
	TxnID        string          `json:"txn_id"`
	AccountID    string          `json:"account_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Description  string          `json:"description,omitempty"`
	TxnDate      time.Time       `json:"txn_date"`
}

// HistoryFromDomain converts domain ledger entries to responses.
func HistoryFromDomain(entries []*domain.TransactionHistory) []*HistoryEntryResponse {
	result := make([]*HistoryEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = &HistoryEntryResponse{
			TxnID:        e.TxnID,
			AccountID:    e.AccountID,
			Type:         string(e.Type),
			Amount:       e.Amount,
			BalanceAfter: e.BalanceAfter,
			Description:  e.Description,
			TxnDate:      e.TxnDate,
		}
	}
	return result
}

// SettlementResultResponse represents one batch run in API responses.
type SettlementResultResponse struct {
	Batch        string           `json:"batch"`
	ExecutedAt   time.Time        `json:"executed_at"`
	TargetDate   string           `json:"target_date"`
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
	ErrorCount   int              `json:"error_count"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Successes    []domain.Outcome `json:"successes,omitempty"`
	Failures     []domain.Outcome `json:"failures,omitempty"`
	Errors       []domain.Outcome `json:"errors,omitempty"`
}

// ResultFromDomain converts a settlement result to a response.
func ResultFromDomain(r *domain.SettlementResult) *SettlementResultResponse {
	return &SettlementResultResponse{
		Batch:        r.Batch,
		ExecutedAt:   r.ExecutedAt,
		TargetDate:   r.TargetDate.Format("2006-01-02"),
		SuccessCount: r.SuccessCount(),
		FailureCount: r.FailureCount(),
		ErrorCount:   r.ErrorCount(),
		TotalAmount:  r.TotalAmount,
		Successes:    r.Successes,
		Failures:     r.Failures,
		Errors:       r.Errors,
	}
}

// RunResponse represents a persisted run record in API responses.
type RunResponse struct {
	ID           string          `json:"id"`
	Batch        string          `json:"batch"`
	ExecutedAt   time.Time       `json:"executed_at"`
	TargetDate   string          `json:"target_date"`
	SuccessCount int             `json:"success_count"`
	FailureCount int             `json:"failure_count"`
	ErrorCount   int             `json:"error_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// RunsFromDomain converts run records to responses.
func RunsFromDomain(runs []*domain.SettlementRun) []*RunResponse {
	result := make([]*RunResponse, len(runs))
	for i, run := range runs {
		result[i] = &RunResponse{
			ID:           run.ID,
			Batch:        run.Batch,
			ExecutedAt:   run.ExecutedAt,
			TargetDate:   run.TargetDate.Format("2006-01-02"),
			SuccessCount: run.SuccessCount,
			FailureCount: run.FailureCount,
			ErrorCount:   run.ErrorCount,
			TotalAmount:  run.TotalAmount,
		}
	}
	return result
}
