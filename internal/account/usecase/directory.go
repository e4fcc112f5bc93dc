package usecase

import (
	"context"
	"fmt"

	accountdomain "unibox-backend/internal/account/domain"
	"unibox-backend/internal/account/repository"
	"unibox-backend/internal/errs"
)

type accountDirectory struct {
	repo repository.LinkedAccountRepository
}

func NewAccountDirectory(repo repository.LinkedAccountRepository) AccountDirectory {
	return &accountDirectory{repo: repo}
}

func (d *accountDirectory) ListLinkedAccounts(ctx context.Context, principalUserID string) ([]*accountdomain.LinkedAccount, error) {
	accounts, err := d.repo.FindByPrincipal(ctx, principalUserID, true)
	if err != nil {
		return nil, fmt.Errorf("list linked accounts: %w", err)
	}
	return accounts, nil
}

func (d *accountDirectory) GetLinkedAccount(ctx context.Context, principalUserID, accountID string) (*accountdomain.LinkedAccount, error) {
	account, err := d.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load linked account: %w", err)
	}
	if account == nil || !account.Active || account.PrincipalUserID != principalUserID {
		return nil, errs.ErrAccountNotFound
	}
	return account, nil
}

func (d *accountDirectory) ListAllActive(ctx context.Context) ([]*accountdomain.LinkedAccount, error) {
	return d.repo.FindAllActive(ctx)
}
