package repository

import (
	"context"

	authdomain "unibox-backend/internal/auth/domain"
)

// UserRepository defines the interface for principal user persistence
type UserRepository interface {
	Create(ctx context.Context, user *authdomain.User) error
	FindByEmail(ctx context.Context, email string) (*authdomain.User, error)
	FindByID(ctx context.Context, id string) (*authdomain.User, error)

	// SaveRefreshToken stores a new token and drops the user's expired ones.
	SaveRefreshToken(ctx context.Context, token *authdomain.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error

	// DeleteCascade removes the user with its sessions, linked accounts and
	// their synced records in one transaction. It returns the ids of the
	// linked accounts that were removed.
	DeleteCascade(ctx context.Context, userID string) ([]string, error)
}
