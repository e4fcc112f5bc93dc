package usecase

import (
	"context"
	"fmt"
	"time"

	accountdomain "unibox-backend/internal/account/domain"
	"unibox-backend/internal/account/repository"
	"unibox-backend/internal/errs"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// RefreshSkew is how long before expiry a token is already treated as stale.
	RefreshSkew = 5 * time.Minute

	// defaultTokenLifetime applies when the provider omits expires_in.
	defaultTokenLifetime = time.Hour
)

type tokenBroker struct {
	repo      repository.LinkedAccountRepository
	refresher TokenRefresher
	log       *zap.Logger
	now       func() time.Time
	inflight  singleflight.Group
}

// NewTokenBroker creates a broker backed by the credential store.
func NewTokenBroker(repo repository.LinkedAccountRepository, refresher TokenRefresher, log *zap.Logger) TokenBroker {
	if log == nil {
		log = zap.NewNop()
	}
	return &tokenBroker{
		repo:      repo,
		refresher: refresher,
		log:       log.Named("token-broker"),
		now:       time.Now,
	}
}

func (b *tokenBroker) GetValidAccessToken(ctx context.Context, accountID string) (string, error) {
	account, err := b.repo.FindByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("load linked account %s: %w", accountID, err)
	}
	if account == nil || !account.Active {
		return "", errs.ErrAccountNotFound
	}

	if !account.TokenExpiresWithin(b.now(), RefreshSkew) {
		return account.AccessToken, nil
	}
	return b.RefreshToken(ctx, account)
}

// RefreshToken exchanges the stored refresh token. Concurrent callers for the
// same account share one provider round-trip. The stored credential is only
// written after the provider answered successfully.
func (b *tokenBroker) RefreshToken(ctx context.Context, account *accountdomain.LinkedAccount) (string, error) {
	if account.RefreshToken == "" {
		return "", errs.ErrRefreshTokenMissing
	}

	// The shared refresh must not die with whichever caller happened to start it.
	refreshCtx := context.WithoutCancel(ctx)

	v, err, shared := b.inflight.Do(account.ID, func() (interface{}, error) {
		tok, err := b.refresher.Refresh(refreshCtx, account.RefreshToken)
		if err != nil {
			b.log.Warn("refresh rejected", zap.String("account_id", account.ID), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", errs.ErrRefreshFailed, err)
		}
		if tok == nil || tok.AccessToken == "" {
			return nil, fmt.Errorf("%w: empty access token", errs.ErrRefreshFailed)
		}

		expiresAt := tok.Expiry
		if expiresAt.IsZero() {
			expiresAt = b.now().Add(defaultTokenLifetime)
		}
		if err := b.repo.UpdateToken(refreshCtx, account.ID, tok.AccessToken, tok.RefreshToken, expiresAt); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}

		b.log.Info("access token refreshed",
			zap.String("account_id", account.ID),
			zap.Time("expires_at", expiresAt),
			zap.Bool("refresh_token_rotated", tok.RefreshToken != ""),
		)
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		b.log.Debug("joined in-flight refresh", zap.String("account_id", account.ID))
	}
	return v.(string), nil
}
