package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanaplan/settled/internal/domain"
	"github.com/hanaplan/settled/internal/usecase"
)

// HistoryRepository implements usecase.HistoryRepository.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Create inserts a ledger entry inside the caller's transaction.
func (r *HistoryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionHistory) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO transaction_history (
			txn_id, account_id, txn_type, amount, balance_after, description, txn_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.TxnID,
		entry.AccountID,
		string(entry.Type),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.BalanceAfter),
		entry.Description,
		timeToPgTimestamptz(entry.TxnDate),
	)

	return err
}

// ListByAccount lists ledger entries for an account, newest first.
func (r *HistoryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT txn_id, account_id, txn_type, amount, balance_after, description, txn_date
		FROM transaction_history
		WHERE account_id = $1
		ORDER BY txn_date DESC, txn_id DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.TransactionHistory
	for rows.Next() {
		var (
			entry        domain.TransactionHistory
			txnType      string
			amount       pgtype.Numeric
			balanceAfter pgtype.Numeric
			txnDate      pgtype.Timestamptz
		)

		err := rows.Scan(
			&entry.TxnID,
			&entry.AccountID,
			&txnType,
			&amount,
			&balanceAfter,
			&entry.Description,
			&txnDate,
		)
		if err != nil {
			return nil, err
		}

		entry.Type = domain.TxnType(txnType)
		entry.Amount = numericToDecimal(amount)
		entry.BalanceAfter = numericToDecimal(balanceAfter)
		entry.TxnDate = txnDate.Time

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
