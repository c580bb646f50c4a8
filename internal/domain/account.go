package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies what an account is used for.
type AccountType string

const (
	AccountTypeOrdinary    AccountType = "ordinary"
	AccountTypeSaving      AccountType = "saving"
	AccountTypeJointSaving AccountType = "joint_saving"
	AccountTypeLoan        AccountType = "loan"
	AccountTypeJointLoan   AccountType = "joint_loan"
)

var accountTypeDescriptions = map[AccountType]string{
	AccountTypeOrdinary:    "ordinary deposit account",
	AccountTypeSaving:      "installment savings account",
	AccountTypeJointSaving: "joint installment savings account",
	AccountTypeLoan:        "loan account",
	AccountTypeJointLoan:   "joint loan account",
}

// Description returns the human-readable description of the account type.
func (t AccountType) Description() string {
	return accountTypeDescriptions[t]
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusClosed   AccountStatus = "closed"
)

// Account represents a ledgered account that can hold a balance.
// Accounts are never deleted; a closed account keeps its history.
type Account struct {
	ID         string
	UserID     string
	ProductID  string
	AccountNum string
	Type       AccountType
	Balance    decimal.Decimal
	Status     AccountStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive reports whether the account may take part in a transfer.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ValidateWithdrawal checks if the account can be debited by amount.
// A withdrawal must never push the balance below zero.
func (a *Account) ValidateWithdrawal(amount decimal.Decimal) error {
	if !a.IsActive() {
		return ErrAccountInactive
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateDeposit checks if the account can be credited by amount.
func (a *Account) ValidateDeposit(amount decimal.Decimal) error {
	if !a.IsActive() {
		return ErrAccountInactive
	}
	return nil
}

// ApplyWithdrawal returns the balance after a debit.
func (a *Account) ApplyWithdrawal(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyDeposit returns the balance after a credit.
func (a *Account) ApplyDeposit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// Shortfall returns how much is missing to cover amount, or zero.
func (a *Account) Shortfall(amount decimal.Decimal) decimal.Decimal {
	if a.Balance.GreaterThanOrEqual(amount) {
		return decimal.Zero
	}
	return amount.Sub(a.Balance)
}
