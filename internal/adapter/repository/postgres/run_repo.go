package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanaplan/settled/internal/domain"
)

// RunRepository implements usecase.RunRepository. Per-item outcomes are
// stored as one JSONB document per run.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Create inserts one settlement run record.
func (r *RunRepository) Create(ctx context.Context, run *domain.SettlementRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	outcomesJSON, err := json.Marshal(run.Outcomes)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO settlement_runs (
			id, batch, executed_at, target_date,
			success_count, failure_count, error_count, total_amount, outcomes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID,
		run.Batch,
		timeToPgTimestamptz(run.ExecutedAt),
		timeToPgTimestamptz(run.TargetDate),
		run.SuccessCount,
		run.FailureCount,
		run.ErrorCount,
		decimalToNumeric(run.TotalAmount),
		outcomesJSON,
	)

	return err
}

// List retrieves run records, newest first.
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]*domain.SettlementRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, batch, executed_at, target_date,
		       success_count, failure_count, error_count, total_amount, outcomes
		FROM settlement_runs
		ORDER BY executed_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.SettlementRun
	for rows.Next() {
		var (
			run          domain.SettlementRun
			executedAt   pgtype.Timestamptz
			targetDate   pgtype.Timestamptz
			totalAmount  pgtype.Numeric
			outcomesJSON []byte
		)

		err := rows.Scan(
			&run.ID,
			&run.Batch,
			&executedAt,
			&targetDate,
			&run.SuccessCount,
			&run.FailureCount,
			&run.ErrorCount,
			&totalAmount,
			&outcomesJSON,
		)
		if err != nil {
			return nil, err
		}

		run.ExecutedAt = executedAt.Time
		run.TargetDate = targetDate.Time
		run.TotalAmount = numericToDecimal(totalAmount)
		if outcomesJSON != nil {
			_ = json.Unmarshal(outcomesJSON, &run.Outcomes)
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
