package domain

import "github.com/shopspring/decimal"

// TransferReceipt is returned for every successful transfer: both
// post-transfer balances and the identifiers of the two ledger entries
// written for the movement.
type TransferReceipt struct {
	FromAccountID    string
	ToAccountID      string
	Amount           decimal.Decimal
	FromBalanceAfter decimal.Decimal
	ToBalanceAfter   decimal.Decimal
	DebitTxnID       string
	CreditTxnID      string
}
