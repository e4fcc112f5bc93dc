package usecase

import (
	"context"

	accountusecase "unibox-backend/internal/account/usecase"
	authdomain "unibox-backend/internal/auth/domain"
	authdto "unibox-backend/internal/auth/dto"
)

// AuthUsecase authenticates principal users.
type AuthUsecase interface {
	Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	// RefreshToken rotates the refresh token: the presented one is revoked.
	RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, accessToken string) (*authdomain.User, error)
	Me(ctx context.Context, userID string) (*authdomain.User, error)
	DeleteUser(ctx context.Context, userID string) error
	SetCacheInvalidators(invalidators ...accountusecase.CacheInvalidator)
}
