package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepayType is the repayment method of a loan contract.
type RepayType string

const (
	RepayEqualPrincipal   RepayType = "equal_principal"
	RepayEqualInstallment RepayType = "equal_installment"
	RepayBullet           RepayType = "bullet"
)

var repayTypeDescriptions = map[RepayType]string{
	RepayEqualPrincipal:   "equal principal",
	RepayEqualInstallment: "equal principal and interest",
	RepayBullet:           "bullet repayment at maturity",
}

// Description returns the human-readable description of the repayment method.
func (t RepayType) Description() string {
	return repayTypeDescriptions[t]
}

// ContractStatus is the lifecycle state of a loan contract.
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusDisbursed ContractStatus = "disbursed"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusDefault   ContractStatus = "default"
	ContractStatusCancelled ContractStatus = "cancelled"
)

var contractStatusDescriptions = map[ContractStatus]string{
	ContractStatusActive:    "active",
	ContractStatusDisbursed: "disbursed",
	ContractStatusCompleted: "completed",
	ContractStatusDefault:   "in default",
	ContractStatusCancelled: "cancelled",
}

// Description returns the human-readable description of the contract status.
func (s ContractStatus) Description() string {
	return contractStatusDescriptions[s]
}

// LoanContract is a disbursed loan. DisburseAccountID is the account
// repayments are drawn from; LoanAccountID is the internal loan account
// repayments are credited to. All links are IDs, never object references.
type LoanContract struct {
	LoanID            string
	AppID             string
	UserID            string
	ProductID         string
	LoanAmount        decimal.Decimal
	InterestRate      decimal.Decimal
	StartDate         time.Time
	EndDate           time.Time
	RepayType         RepayType
	DisburseAccountID string
	LoanAccountID     string
	Status            ContractStatus
	CreatedAt         time.Time
}

// Settleable reports whether the contract's schedule should be settled.
func (c *LoanContract) Settleable() bool {
	return c.Status == ContractStatusActive || c.Status == ContractStatusDisbursed
}

// RepaymentStatus is the settlement state of one repayment schedule row.
type RepaymentStatus string

const (
	RepaymentPending    RepaymentStatus = "pending"
	RepaymentInProgress RepaymentStatus = "in_progress"
	RepaymentPaid       RepaymentStatus = "paid"
	RepaymentOverdue    RepaymentStatus = "overdue"
)

var repaymentStatusDescriptions = map[RepaymentStatus]string{
	RepaymentPending:    "pending",
	RepaymentInProgress: "settlement in progress",
	RepaymentPaid:       "paid",
	RepaymentOverdue:    "overdue",
}

// Description returns the human-readable description of the repayment status.
func (s RepaymentStatus) Description() string {
	return repaymentStatusDescriptions[s]
}

// LoanRepaymentSchedule is one due installment of a loan contract.
// A row transitions to paid exactly once; pending to overdue is a
// batch-time reclassification and is never reversed automatically.
type LoanRepaymentSchedule struct {
	RepayID      string
	LoanID       string
	DueDate      time.Time
	PrincipalDue decimal.Decimal
	InterestDue  decimal.Decimal
	TotalDue     decimal.Decimal
	Status       RepaymentStatus
	PaidAt       *time.Time
}

// IsDue reports whether the row should be settled for the target date.
func (s *LoanRepaymentSchedule) IsDue(target time.Time) bool {
	if s.Status != RepaymentPending && s.Status != RepaymentOverdue {
		return false
	}
	return !s.DueDate.After(target)
}
