package domain

import "time"

// LinkedAccount is one external Google identity connected under a principal user.
// AccessToken and ExpiresAt are only ever written by the token broker.
type LinkedAccount struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	PrincipalUserID string    `json:"principal_user_id" gorm:"index;not null;uniqueIndex:idx_principal_external_email"`
	ExternalEmail   string    `json:"external_email" gorm:"not null;uniqueIndex:idx_principal_external_email"`
	Provider        string    `json:"provider" gorm:"default:google"`
	AccessToken     string    `json:"-"`
	RefreshToken    string    `json:"-"`
	ExpiresAt       time.Time `json:"expires_at"`
	Active          bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Label is the human-facing name used to tag aggregated items.
func (a *LinkedAccount) Label() string {
	return a.ExternalEmail
}

// TokenExpiresWithin reports whether the stored access token expires within d of now.
func (a *LinkedAccount) TokenExpiresWithin(now time.Time, d time.Duration) bool {
	return a.ExpiresAt.Sub(now) <= d
}
