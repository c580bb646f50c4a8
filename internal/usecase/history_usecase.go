package usecase

import (
	"context"

	"github.com/hanaplan/settled/internal/domain"
)

// HistoryUseCase serves ledger entry reads for the API surface.
type HistoryUseCase struct {
	historyRepo HistoryRepository
}

// NewHistoryUseCase creates a new HistoryUseCase.
func NewHistoryUseCase(historyRepo HistoryRepository) *HistoryUseCase {
	return &HistoryUseCase{historyRepo: historyRepo}
}

// ListByAccount lists an account's ledger entries, newest first.
func (uc *HistoryUseCase) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return uc.historyRepo.ListByAccount(ctx, accountID, limit, offset)
}
