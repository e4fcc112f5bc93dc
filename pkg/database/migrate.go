package database

import (
	"fmt"

	accountdomain "unibox-backend/internal/account/domain"
	authdomain "unibox-backend/internal/auth/domain"
	recorddomain "unibox-backend/internal/record/domain"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&accountdomain.LinkedAccount{},
		&recorddomain.SyncedRecord{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
