package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsStatus is the lifecycle state of a savings subscription.
type SavingsStatus string

const (
	SavingsStatusActive    SavingsStatus = "active"
	SavingsStatusMatured   SavingsStatus = "matured"
	SavingsStatusCancelled SavingsStatus = "cancelled"
)

var savingsStatusDescriptions = map[SavingsStatus]string{
	SavingsStatusActive:    "active",
	SavingsStatusMatured:   "matured",
	SavingsStatusCancelled: "cancelled",
}

// Description returns the human-readable description of the savings status.
func (s SavingsStatus) Description() string {
	return savingsStatusDescriptions[s]
}

// UserSavings is one user's subscription to a savings account: the monthly
// amount owed and the account contributions are auto-debited from. Joint
// accounts carry one subscription per participant.
type UserSavings struct {
	UserSavingsID      string
	UserID             string
	ProductID          string
	AccountID          string
	StartDate          time.Time
	EndDate            *time.Time
	MonthlyAmount      decimal.Decimal
	AutoDebitAccountID string
	Status             SavingsStatus
	CreatedAt          time.Time
}

// PaymentStatus is the settlement state of one contribution schedule row.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentInProgress PaymentStatus = "in_progress"
	PaymentPaid       PaymentStatus = "paid"
	PaymentOverdue    PaymentStatus = "overdue"
	PaymentCancelled  PaymentStatus = "cancelled"
)

var paymentStatusDescriptions = map[PaymentStatus]string{
	PaymentPending:    "pending",
	PaymentInProgress: "settlement in progress",
	PaymentPaid:       "paid",
	PaymentOverdue:    "overdue",
	PaymentCancelled:  "cancelled",
}

// Description returns the human-readable description of the payment status.
func (s PaymentStatus) Description() string {
	return paymentStatusDescriptions[s]
}

// PaymentSchedule is one due contribution to a savings account. For a joint
// account the row covers the whole monthly amount; participant shares are
// derived from contribution rates at settlement time.
type PaymentSchedule struct {
	PaymentID string
	UserID    string
	AccountID string
	DueDate   time.Time
	Amount    decimal.Decimal
	Status    PaymentStatus
	PaidAt    *time.Time
}

// IsDue reports whether the row should be settled for the target date.
func (s *PaymentSchedule) IsDue(target time.Time) bool {
	if s.Status != PaymentPending && s.Status != PaymentOverdue {
		return false
	}
	return !s.DueDate.After(target)
}

// SavingsContribution marks one participant's settled share of one schedule
// row. Its existence is what makes retries idempotent at the participant
// level: a re-run skips participants that already have a row.
type SavingsContribution struct {
	ContributionID string
	PaymentID      string
	ParticipantID  string
	UserID         string
	Amount         decimal.Decimal
	DebitTxnID     string
	CreditTxnID    string
	PaidAt         time.Time
}
