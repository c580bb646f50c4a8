package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanaplan/settled/internal/domain"
)

// LoanContractRepository implements usecase.LoanContractRepository.
type LoanContractRepository struct {
	pool *pgxpool.Pool
}

// NewLoanContractRepository creates a new LoanContractRepository.
func NewLoanContractRepository(pool *pgxpool.Pool) *LoanContractRepository {
	return &LoanContractRepository{pool: pool}
}

// ListSettleable lists contracts whose schedules should be settled.
func (r *LoanContractRepository) ListSettleable(ctx context.Context) ([]*domain.LoanContract, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT loan_id, app_id, user_id, product_id, loan_amount, interest_rate,
		       start_date, end_date, repay_type, disburse_account_id, loan_account_id,
		       status, created_at
		FROM loan_contracts
		WHERE status IN ('active', 'disbursed')
		ORDER BY loan_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []*domain.LoanContract
	for rows.Next() {
		var (
			c            domain.LoanContract
			loanAmount   pgtype.Numeric
			interestRate pgtype.Numeric
			startDate    pgtype.Timestamptz
			endDate      pgtype.Timestamptz
			repayType    string
			status       string
			createdAt    pgtype.Timestamptz
		)

		err := rows.Scan(
			&c.LoanID,
			&c.AppID,
			&c.UserID,
			&c.ProductID,
			&loanAmount,
			&interestRate,
			&startDate,
			&endDate,
			&repayType,
			&c.DisburseAccountID,
			&c.LoanAccountID,
			&status,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		c.LoanAmount = numericToDecimal(loanAmount)
		c.InterestRate = numericToDecimal(interestRate)
		c.StartDate = startDate.Time
		c.EndDate = endDate.Time
		c.RepayType = domain.RepayType(repayType)
		c.Status = domain.ContractStatus(status)
		c.CreatedAt = createdAt.Time

		contracts = append(contracts, &c)
	}

	return contracts, rows.Err()
}

// RepaymentScheduleRepository implements usecase.RepaymentScheduleRepository.
type RepaymentScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewRepaymentScheduleRepository creates a new RepaymentScheduleRepository.
func NewRepaymentScheduleRepository(pool *pgxpool.Pool) *RepaymentScheduleRepository {
	return &RepaymentScheduleRepository{pool: pool}
}

// ListDue lists open schedule rows of a loan due on or before the date.
func (r *RepaymentScheduleRepository) ListDue(ctx context.Context, loanID string, dueOnOrBefore time.Time) ([]*domain.LoanRepaymentSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT repay_id, loan_id, due_date, principal_due, interest_due, total_due, status, paid_at
		FROM loan_repayment_schedules
		WHERE loan_id = $1 AND status IN ('pending', 'overdue') AND due_date <= $2
		ORDER BY due_date`,
		loanID, timeToPgTimestamptz(dueOnOrBefore))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*domain.LoanRepaymentSchedule
	for rows.Next() {
		var (
			s            domain.LoanRepaymentSchedule
			dueDate      pgtype.Timestamptz
			principalDue pgtype.Numeric
			interestDue  pgtype.Numeric
			totalDue     pgtype.Numeric
			status       string
			paidAt       pgtype.Timestamptz
		)

		err := rows.Scan(&s.RepayID, &s.LoanID, &dueDate, &principalDue, &interestDue, &totalDue, &status, &paidAt)
		if err != nil {
			return nil, err
		}

		s.DueDate = dueDate.Time
		s.PrincipalDue = numericToDecimal(principalDue)
		s.InterestDue = numericToDecimal(interestDue)
		s.TotalDue = numericToDecimal(totalDue)
		s.Status = domain.RepaymentStatus(status)
		if paidAt.Valid {
			t := paidAt.Time
			s.PaidAt = &t
		}

		schedules = append(schedules, &s)
	}

	return schedules, rows.Err()
}

// Claim atomically moves an open row to in_progress. It reports false when
// another run already claimed or settled the row.
func (r *RepaymentScheduleRepository) Claim(ctx context.Context, repayID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE loan_repayment_schedules
		SET status = 'in_progress'
		WHERE repay_id = $1 AND status IN ('pending', 'overdue')`,
		repayID)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// Release puts a claimed row back to the given open status.
func (r *RepaymentScheduleRepository) Release(ctx context.Context, repayID string, status domain.RepaymentStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE loan_repayment_schedules
		SET status = $2
		WHERE repay_id = $1 AND status = 'in_progress'`,
		repayID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}

	return nil
}

// MarkPaid marks a claimed row as settled.
func (r *RepaymentScheduleRepository) MarkPaid(ctx context.Context, repayID string, paidAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE loan_repayment_schedules
		SET status = 'paid', paid_at = $2
		WHERE repay_id = $1 AND status = 'in_progress'`,
		repayID, timeToPgTimestamptz(paidAt))
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
func (r *RepaymentScheduleRepository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE loan_repayment_schedules
		SET status = 'overdue'
		WHERE status = 'pending' AND due_date < $1`,
		timeToPgTimestamptz(before))
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
