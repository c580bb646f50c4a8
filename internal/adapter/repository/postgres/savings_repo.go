package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanaplan/settled/internal/domain"
)

// SavingsRepository implements usecase.SavingsRepository.
type SavingsRepository struct {
	pool *pgxpool.Pool
}

// NewSavingsRepository creates a new SavingsRepository.
func NewSavingsRepository(pool *pgxpool.Pool) *SavingsRepository {
	return &SavingsRepository{pool: pool}
}

// GetSubscription retrieves one user's subscription to a savings account.
func (r *SavingsRepository) GetSubscription(ctx context.Context, accountID, userID string) (*domain.UserSavings, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_savings_id, user_id, product_id, account_id, start_date, end_date,
		       monthly_amount, auto_debit_account_id, status, created_at
		FROM user_savings
		WHERE account_id = $1 AND user_id = $2`,
		accountID, userID)

	var (
		s             domain.UserSavings
		startDate     pgtype.Timestamptz
		endDate       pgtype.Timestamptz
		monthlyAmount pgtype.Numeric
		autoDebitID   pgtype.Text
		status        string
		createdAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&s.UserSavingsID,
		&s.UserID,
		&s.ProductID,
		&s.AccountID,
		&startDate,
		&endDate,
		&monthlyAmount,
		&autoDebitID,
		&status,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}

		return nil, err
	}

	s.StartDate = startDate.Time
	if endDate.Valid {
		t := endDate.Time
		s.EndDate = &t
	}
	s.MonthlyAmount = numericToDecimal(monthlyAmount)
	if autoDebitID.Valid {
		s.AutoDebitAccountID = autoDebitID.String
	}
	s.Status = domain.SavingsStatus(status)
	s.CreatedAt = createdAt.Time

	return &s, nil
}

// ListDueSchedules lists open contribution rows of an account due on or
// before the date.
func (r *SavingsRepository) ListDueSchedules(ctx context.Context, accountID string, dueOnOrBefore time.Time) ([]*domain.PaymentSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT payment_id, user_id, account_id, due_date, amount, status, paid_at
		FROM payment_schedules
		WHERE account_id = $1 AND status IN ('pending', 'overdue') AND due_date <= $2
		ORDER BY due_date`,
		accountID, timeToPgTimestamptz(dueOnOrBefore))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*domain.PaymentSchedule
	for rows.Next() {
		var (
			s       domain.PaymentSchedule
			dueDate pgtype.Timestamptz
			amount  pgtype.Numeric
			status  string
			paidAt  pgtype.Timestamptz
		)

		err := rows.Scan(&s.PaymentID, &s.UserID, &s.AccountID, &dueDate, &amount, &status, &paidAt)
		if err != nil {
			return nil, err
		}

		s.DueDate = dueDate.Time
		s.Amount = numericToDecimal(amount)
		s.Status = domain.PaymentStatus(status)
		if paidAt.Valid {
			t := paidAt.Time
			s.PaidAt = &t
		}

		schedules = append(schedules, &s)
	}

	return schedules, rows.Err()
}

// ClaimSchedule atomically moves an open row to in_progress. It reports
// false when another run already claimed or settled the row.
func (r *SavingsRepository) ClaimSchedule(ctx context.Context, paymentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_schedules
		SET status = 'in_progress'
		WHERE payment_id = $1 AND status IN ('pending', 'overdue')`,
		paymentID)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// ReleaseSchedule puts a claimed row back to the given open status.
func (r *SavingsRepository) ReleaseSchedule(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_schedules
		SET status = $2
		WHERE payment_id = $1 AND status = 'in_progress'`,
		paymentID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}

	return nil
}

// MarkSchedulePaid marks a claimed row as settled.
func (r *SavingsRepository) MarkSchedulePaid(ctx context.Context, paymentID string, paidAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_schedules
		SET status = 'paid', paid_at = $2
		WHERE payment_id = $1 AND status = 'in_progress'`,
		paymentID, timeToPgTimestamptz(paidAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}

	return nil
}

// MarkOverdue reclassifies pending rows whose due date has passed and
// returns the number of rows changed.
func (r *SavingsRepository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_schedules
		SET status = 'overdue'
		WHERE status = 'pending' AND due_date < $1`,
		timeToPgTimestamptz(before))
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// CreateContribution inserts the per-participant settlement marker. The
// unique (payment_id, participant_id) pair is what makes retries safe.
func (r *SavingsRepository) CreateContribution(ctx context.Context, contribution *domain.SavingsContribution) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO savings_contributions (
			contribution_id, payment_id, participant_id, user_id, amount,
			debit_txn_id, credit_txn_id, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		contribution.ContributionID,
		contribution.PaymentID,
		contribution.ParticipantID,
		contribution.UserID,
		decimalToNumeric(contribution.Amount),
		contribution.DebitTxnID,
		contribution.CreditTxnID,
		timeToPgTimestamptz(contribution.PaidAt),
	)

	return err
}

// ListContributions lists settled participant shares of a schedule row.
func (r *SavingsRepository) ListContributions(ctx context.Context, paymentID string) ([]*domain.SavingsContribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT contribution_id, payment_id, participant_id, user_id, amount,
		       debit_txn_id, credit_txn_id, paid_at
		FROM savings_contributions
		WHERE payment_id = $1`,
		paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []*domain.SavingsContribution
	for rows.Next() {
		var (
			c      domain.SavingsContribution
			amount pgtype.Numeric
			paidAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&c.ContributionID,
			&c.PaymentID,
			&c.ParticipantID,
			&c.UserID,
			&amount,
			&c.DebitTxnID,
			&c.CreditTxnID,
			&paidAt,
		)
		if err != nil {
			return nil, err
		}

		c.Amount = numericToDecimal(amount)
		c.PaidAt = paidAt.Time

		contributions = append(contributions, &c)
	}

	return contributions, rows.Err()
}
