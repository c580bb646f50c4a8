package usecase

import (
	"context"

	"github.com/hanaplan/settled/internal/domain"
)

// AccountUseCase serves account reads for the API surface.
type AccountUseCase struct {
	accountRepo AccountRepository
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository) *AccountUseCase {
	return &AccountUseCase{accountRepo: accountRepo}
}

// Get retrieves one account.
func (uc *AccountUseCase) Get(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListByType lists accounts of one type.
func (uc *AccountUseCase) ListByType(ctx context.Context, accountType domain.AccountType) ([]*domain.Account, error) {
	return uc.accountRepo.ListByType(ctx, accountType)
}
