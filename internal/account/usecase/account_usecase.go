package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	accountdomain "unibox-backend/internal/account/domain"
	"unibox-backend/internal/account/repository"
	"unibox-backend/internal/errs"

	"go.uber.org/zap"
)

// accountUsecase implements AccountUsecase interface
type accountUsecase struct {
	repo         repository.LinkedAccountRepository
	directory    AccountDirectory
	linker       OAuthLinker
	invalidators []CacheInvalidator
	log          *zap.Logger
}

// NewAccountUsecase creates a new instance of accountUsecase
func NewAccountUsecase(repo repository.LinkedAccountRepository, directory AccountDirectory, linker OAuthLinker, log *zap.Logger) AccountUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &accountUsecase{
		repo:      repo,
		directory: directory,
		linker:    linker,
		log:       log.Named("accounts"),
	}
}

// SetCacheInvalidators wires the record usecases after creation
func (u *accountUsecase) SetCacheInvalidators(invalidators ...CacheInvalidator) {
	u.invalidators = invalidators
}

func (u *accountUsecase) AuthURL(state string) string {
	return u.linker.AuthCodeURL(state)
}

// LinkAccount completes the OAuth callback. Linking the same mailbox twice
// re-activates and refreshes the existing row instead of duplicating it.
func (u *accountUsecase) LinkAccount(ctx context.Context, principalUserID, code string) (*accountdomain.LinkedAccount, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: authorization code is required", errs.ErrValidation)
	}

	tok, err := u.linker.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange authorization code: %v", errs.ErrUnauthorized, err)
	}

	email, err := u.linker.ProfileEmail(ctx, tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve account email: %v", errs.ErrProviderUnavailable, err)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultTokenLifetime)
	}

	existing, err := u.repo.FindByPrincipalAndEmail(ctx, principalUserID, email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			existing.RefreshToken = tok.RefreshToken
		}
		existing.ExpiresAt = expiresAt.UTC()
		existing.Active = true
		if err := u.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		if err := u.invalidate(ctx, principalUserID, existing.ID); err != nil {
			u.log.Warn("cache invalidation after relink failed", zap.String("account_id", existing.ID), zap.Error(err))
		}
		u.log.Info("linked account re-activated", zap.String("account_id", existing.ID))
		return existing, nil
	}

	account := &accountdomain.LinkedAccount{
		PrincipalUserID: principalUserID,
		ExternalEmail:   email,
		Provider:        "google",
		AccessToken:     tok.AccessToken,
		RefreshToken:    tok.RefreshToken,
		ExpiresAt:       expiresAt.UTC(),
		Active:          true,
	}
	if err := u.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	if err := u.invalidate(ctx, principalUserID, account.ID); err != nil {
		u.log.Warn("cache invalidation after link failed", zap.String("account_id", account.ID), zap.Error(err))
	}
	u.log.Info("linked account created", zap.String("account_id", account.ID), zap.String("principal_user_id", principalUserID))
	return account, nil
}

func (u *accountUsecase) ListAccounts(ctx context.Context, principalUserID string) ([]*accountdomain.LinkedAccount, error) {
	return u.repo.FindByPrincipal(ctx, principalUserID, false)
}

func (u *accountUsecase) DisconnectAccount(ctx context.Context, principalUserID, accountID string) error {
	account, err := u.directory.GetLinkedAccount(ctx, principalUserID, accountID)
	if err != nil {
		return err
	}
	if err := u.repo.SetActive(ctx, account.ID, false); err != nil {
		return err
	}
	if err := u.invalidate(ctx, principalUserID, account.ID); err != nil {
		return fmt.Errorf("invalidate cache after disconnect: %w", err)
	}
	u.log.Info("linked account disconnected", zap.String("account_id", account.ID))
	return nil
}

func (u *accountUsecase) invalidate(ctx context.Context, principalUserID, accountID string) error {
	for _, inv := range u.invalidators {
		if err := inv.InvalidateAccount(ctx, principalUserID, accountID); err != nil {
			return err
		}
	}
	return nil
}
