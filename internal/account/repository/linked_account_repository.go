package repository

import (
	"context"
	"errors"
	"time"

	accountdomain "unibox-backend/internal/account/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// linkedAccountRepository implements LinkedAccountRepository interface
type linkedAccountRepository struct {
	db *gorm.DB
}

// NewLinkedAccountRepository creates a new instance of linkedAccountRepository
func NewLinkedAccountRepository(db *gorm.DB) LinkedAccountRepository {
	return &linkedAccountRepository{
		db: db,
	}
}

func (r *linkedAccountRepository) Create(ctx context.Context, account *accountdomain.LinkedAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *linkedAccountRepository) FindByID(ctx context.Context, id string) (*accountdomain.LinkedAccount, error) {
	var account accountdomain.LinkedAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *linkedAccountRepository) FindByPrincipalAndEmail(ctx context.Context, principalUserID, email string) (*accountdomain.LinkedAccount, error) {
	var account accountdomain.LinkedAccount
	err := r.db.WithContext(ctx).
		Where("principal_user_id = ? AND external_email = ?", principalUserID, email).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *linkedAccountRepository) FindByPrincipal(ctx context.Context, principalUserID string, activeOnly bool) ([]*accountdomain.LinkedAccount, error) {
	var accounts []*accountdomain.LinkedAccount
	query := r.db.WithContext(ctx).Where("principal_user_id = ?", principalUserID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	err := query.Order("created_at ASC, id ASC").Find(&accounts).Error
	return accounts, err
}

func (r *linkedAccountRepository) FindAllActive(ctx context.Context) ([]*accountdomain.LinkedAccount, error) {
	var accounts []*accountdomain.LinkedAccount
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("principal_user_id, created_at").Find(&accounts).Error
	return accounts, err
}

func (r *linkedAccountRepository) Update(ctx context.Context, account *accountdomain.LinkedAccount) error {
	account.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(account).Error
}

// UpdateToken only touches the credential columns so concurrent refreshes of the
// same row resolve last-write-wins without clobbering other fields.
func (r *linkedAccountRepository) UpdateToken(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"expires_at":   expiresAt.UTC(),
		"updated_at":   time.Now().UTC(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.WithContext(ctx).Model(&accountdomain.LinkedAccount{}).Where("id = ?", id).Updates(updates).Error
}

func (r *linkedAccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.db.WithContext(ctx).Model(&accountdomain.LinkedAccount{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now().UTC(),
		}).Error
}
