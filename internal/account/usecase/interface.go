package usecase

import (
	"context"

	accountdomain "unibox-backend/internal/account/domain"

	"golang.org/x/oauth2"
)

// TokenRefresher exchanges a refresh token with the OAuth provider.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuthLinker completes the OAuth callback for a new linked account.
type OAuthLinker interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	ProfileEmail(ctx context.Context, accessToken string) (string, error)
}

// TokenBroker hands out access tokens that are valid for at least the skew window.
type TokenBroker interface {
	GetValidAccessToken(ctx context.Context, accountID string) (string, error)
	RefreshToken(ctx context.Context, account *accountdomain.LinkedAccount) (string, error)
}

// AccountDirectory resolves a principal user to its linked accounts.
type AccountDirectory interface {
	// ListLinkedAccounts returns the principal's active accounts.
	ListLinkedAccounts(ctx context.Context, principalUserID string) ([]*accountdomain.LinkedAccount, error)
	// GetLinkedAccount returns an active account owned by the principal or errs.ErrAccountNotFound.
	GetLinkedAccount(ctx context.Context, principalUserID, accountID string) (*accountdomain.LinkedAccount, error)
	ListAllActive(ctx context.Context) ([]*accountdomain.LinkedAccount, error)
}

// CacheInvalidator drops cached reads that involve an account.
type CacheInvalidator interface {
	InvalidateAccount(ctx context.Context, principalUserID, accountID string) error
}

// AccountUsecase manages the lifecycle of linked accounts.
type AccountUsecase interface {
	AuthURL(state string) string
	LinkAccount(ctx context.Context, principalUserID, code string) (*accountdomain.LinkedAccount, error)
	ListAccounts(ctx context.Context, principalUserID string) ([]*accountdomain.LinkedAccount, error)
	DisconnectAccount(ctx context.Context, principalUserID, accountID string) error
	SetCacheInvalidators(invalidators ...CacheInvalidator)
}
