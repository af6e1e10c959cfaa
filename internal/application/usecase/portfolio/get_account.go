package portfolio

import (
	"context"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/internal/domain/user"
	"github.com/khoahotran/portgen/pkg/apperror"
)

type GetAccountUseCase struct {
	userRepo user.Repository
}

func NewGetAccountUseCase(uRepo user.Repository) *GetAccountUseCase {
	return &GetAccountUseCase{userRepo: uRepo}
}

// Execute returns the caller's user document, creating it on first use.
func (uc *GetAccountUseCase) Execute(ctx context.Context, principal service.Principal) (*user.User, error) {
	if principal.UserID == "" {
		return nil, apperror.NewUnauthorized("no session", nil)
	}
	return uc.userRepo.Ensure(ctx, principal.UserID, principal.DisplayName, principal.Email)
}
