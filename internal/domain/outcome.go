package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutcomeStatus is the three-tier result taxonomy of one settlement item.
// A failure is an expected business condition (insufficient funds) that a
// future run can recover; an error is unexpected given well-formed data.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	OutcomeError   OutcomeStatus = "error"
)

// Outcome records the result of settling one schedule row or one
// participant share. Every item produces exactly one outcome regardless of
// how it ended; the batch loop never decides control flow by catching
// panics or inspecting opaque errors.
type Outcome struct {
	Status           OutcomeStatus   `json:"status"`
	ScheduleID       string          `json:"schedule_id"`
	LoanID           string          `json:"loan_id,omitempty"`
	ParticipantID    string          `json:"participant_id,omitempty"`
	UserID           string          `json:"user_id,omitempty"`
	FromAccountID    string          `json:"from_account_id,omitempty"`
	ToAccountID      string          `json:"to_account_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Shortfall        decimal.Decimal `json:"shortfall,omitempty"`
	FromBalanceAfter decimal.Decimal `json:"from_balance_after,omitempty"`
	ToBalanceAfter   decimal.Decimal `json:"to_balance_after,omitempty"`
	DebitTxnID       string          `json:"debit_txn_id,omitempty"`
	CreditTxnID      string          `json:"credit_txn_id,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	ProcessedAt      time.Time       `json:"processed_at"`
}

// SettlementResult aggregates per-item outcomes of one batch run. It is a
// plain in-memory value, independent of whether it is later persisted.
type SettlementResult struct {
	Batch       string          `json:"batch"`
	ExecutedAt  time.Time       `json:"executed_at"`
	TargetDate  time.Time       `json:"target_date"`
	Successes   []Outcome       `json:"successes"`
	Failures    []Outcome       `json:"failures"`
	Errors      []Outcome       `json:"errors"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewSettlementResult creates an empty result for one batch run.
func NewSettlementResult(batch string, targetDate time.Time) *SettlementResult {
	return &SettlementResult{
		Batch:       batch,
		ExecutedAt:  time.Now().UTC(),
		TargetDate:  targetDate,
		TotalAmount: decimal.Zero,
	}
}

// AddSuccess records a settled item and accumulates the amount moved.
func (r *SettlementResult) AddSuccess(o Outcome) {
	o.Status = OutcomeSuccess
	o.ProcessedAt = time.Now().UTC()
	r.Successes = append(r.Successes, o)
	r.TotalAmount = r.TotalAmount.Add(o.Amount)
}

// AddFailure records a business failure; the item stays unsettled.
func (r *SettlementResult) AddFailure(o Outcome) {
	o.Status = OutcomeFailure
	o.ProcessedAt = time.Now().UTC()
	r.Failures = append(r.Failures, o)
}

// AddError records a technical or data-integrity error.
func (r *SettlementResult) AddError(o Outcome) {
	o.Status = OutcomeError
	o.ProcessedAt = time.Now().UTC()
	r.Errors = append(r.Errors, o)
}

// SuccessCount returns the number of settled items.
func (r *SettlementResult) SuccessCount() int { return len(r.Successes) }

// FailureCount returns the number of business failures.
func (r *SettlementResult) FailureCount() int { return len(r.Failures) }

// ErrorCount returns the number of technical errors.
func (r *SettlementResult) ErrorCount() int { return len(r.Errors) }

// Outcomes returns all outcomes in success, failure, error order.
func (r *SettlementResult) Outcomes() []Outcome {
	all := make([]Outcome, 0, len(r.Successes)+len(r.Failures)+len(r.Errors))
	all = append(all, r.Successes...)
	all = append(all, r.Failures...)
	all = append(all, r.Errors...)
	return all
}

// SettlementRun is the persisted audit record of one batch run.
type SettlementRun struct {
	ID           string
	Batch        string
	ExecutedAt   time.Time
	TargetDate   time.Time
	SuccessCount int
	FailureCount int
	ErrorCount   int
	TotalAmount  decimal.Decimal
	Outcomes     []Outcome
}
