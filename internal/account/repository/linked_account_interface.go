package repository

import (
	"context"
	"time"

	accountdomain "unibox-backend/internal/account/domain"
)

// LinkedAccountRepository is the credential store for linked accounts.
type LinkedAccountRepository interface {
	Create(ctx context.Context, account *accountdomain.LinkedAccount) error
	// FindByID returns nil, nil when the account does not exist.
	FindByID(ctx context.Context, id string) (*accountdomain.LinkedAccount, error)
	FindByPrincipalAndEmail(ctx context.Context, principalUserID, email string) (*accountdomain.LinkedAccount, error)
	// FindByPrincipal lists the principal's accounts ordered by creation time.
	FindByPrincipal(ctx context.Context, principalUserID string, activeOnly bool) ([]*accountdomain.LinkedAccount, error)
	FindAllActive(ctx context.Context) ([]*accountdomain.LinkedAccount, error)
	Update(ctx context.Context, account *accountdomain.LinkedAccount) error
	// UpdateToken persists a refreshed credential. An empty refreshToken keeps the stored one.
	UpdateToken(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
}
