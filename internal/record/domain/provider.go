package domain

import (
	"context"
	"time"
)

// ProviderQuery is what a remote list/search call receives.
type ProviderQuery struct {
	TimeMin    time.Time
	TimeMax    *time.Time
	Search     string
	MaxResults int
}

// ProviderPage is the remote answer. Total may be a provider estimate.
type ProviderPage struct {
	Items []*Item
	Total int
}

// Provider is the stateless adapter to a remote calendar or mail API. The
// access token is supplied per call by the token broker.
type Provider interface {
	Kind() Kind
	// MaxResults is the provider's hard cap for one list call.
	MaxResults() int
	List(ctx context.Context, accessToken string, q ProviderQuery) (*ProviderPage, error)
	Get(ctx context.Context, accessToken, externalID string) (*Item, error)
}

// ItemInput carries the writable fields of an event.
type ItemInput struct {
	Subject      string    `json:"subject"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Participants []string  `json:"participants"`
}

// Writer is implemented by providers that accept create/update/delete.
type Writer interface {
	Insert(ctx context.Context, accessToken string, in *ItemInput) (*Item, error)
	Update(ctx context.Context, accessToken, externalID string, in *ItemInput) (*Item, error)
	Delete(ctx context.Context, accessToken, externalID string) error
}
