package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType classifies a ledger entry.
type TxnType string

const (
	TxnDeposit    TxnType = "deposit"
	TxnWithdrawal TxnType = "withdrawal"
	TxnInterest   TxnType = "interest"
	TxnLoanOut    TxnType = "loan_out" // loan disbursement
	TxnLoanIn     TxnType = "loan_in"  // loan repayment received
)

var txnTypeDescriptions = map[TxnType]string{
	TxnDeposit:    "deposit",
	TxnWithdrawal: "withdrawal",
	TxnInterest:   "interest",
	TxnLoanOut:    "loan disbursement",
	TxnLoanIn:     "loan repayment",
}

// Description returns the human-readable description of the transaction type.
func (t TxnType) Description() string {
	return txnTypeDescriptions[t]
}

// TransactionHistory is an immutable ledger entry: one signed balance change
// against one account. Two entries are always written together for a
// transfer, each carrying the post-transfer balance of its own account, so
// balances can be reconstructed independently of the account row.
type TransactionHistory struct {
	TxnID        string
	AccountID    string
	Type         TxnType
	Amount       decimal.Decimal // signed: negative for debits
	BalanceAfter decimal.Decimal
	Description  string
	TxnDate      time.Time
}
