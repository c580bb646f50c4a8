package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanaplan/settled/internal/domain"
)

// ParticipantRepository implements usecase.ParticipantRepository.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// ListByAccount lists participants of a joint account, primary first.
func (r *ParticipantRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.AccountParticipant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT participant_id, account_id, user_id, role, contribution_rate, created_at
		FROM account_participants
		WHERE account_id = $1
		ORDER BY CASE role WHEN 'primary' THEN 0 ELSE 1 END, participant_id`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*domain.AccountParticipant
	for rows.Next() {
		var (
			p         domain.AccountParticipant
			role      string
			rate      pgtype.Numeric
			createdAt pgtype.Timestamptz
		)

		err := rows.Scan(&p.ParticipantID, &p.AccountID, &p.UserID, &role, &rate, &createdAt)
		if err != nil {
			return nil, err
		}

		p.Role = domain.ParticipantRole(role)
		p.ContributionRate = numericToDecimal(rate)
		p.CreatedAt = createdAt.Time

		participants = append(participants, &p)
	}

	return participants, rows.Err()
}
