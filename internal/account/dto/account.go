package dto

import (
	"time"

	accountdomain "unibox-backend/internal/account/domain"
)

type LinkAccountRequest struct {
	Code string `json:"code" binding:"required"`
}

type AuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// AccountResponse is the public view of a linked account. Tokens never leave the server.
type AccountResponse struct {
	ID            string    `json:"id"`
	ExternalEmail string    `json:"external_email"`
	Provider      string    `json:"provider"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewAccountResponse(a *accountdomain.LinkedAccount) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		ExternalEmail: a.ExternalEmail,
		Provider:      a.Provider,
		Active:        a.Active,
		CreatedAt:     a.CreatedAt,
	}
}

type AccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
}
