package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Transfer errors
	ErrSameAccount   = errors.New("cannot transfer to same account")
	ErrInvalidAmount = errors.New("amount must be positive")

	// Schedule errors
	ErrScheduleNotFound       = errors.New("schedule row not found")
	ErrScheduleAlreadyClaimed = errors.New("schedule row already claimed by another run")
	ErrSubscriptionNotFound   = errors.New("savings subscription not found")

	// Participant errors
	ErrInvalidContributionRates = errors.New("contribution rates do not sum to 100")
	ErrNoAutoDebitAccount       = errors.New("no auto-debit account configured")
)

// InsufficientFundsError carries the balance context of a rejected
// withdrawal so batches can report the exact shortfall.
type InsufficientFundsError struct {
	AccountID string
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: account %s has %s, requested %s",
		e.AccountID, e.Balance, e.Requested)
}

// Unwrap makes errors.Is(err, ErrInsufficientFunds) hold.
func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// Shortfall returns the amount missing to cover the request.
func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Balance)
}
