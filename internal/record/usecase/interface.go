package usecase

import (
	"context"

	accountdomain "unibox-backend/internal/account/domain"
	recorddomain "unibox-backend/internal/record/domain"
)

// QueryService answers a query for one linked account, falling back to the
// local mirror when the provider fails.
type QueryService interface {
	Query(ctx context.Context, accountID string, q recorddomain.Query) (*recorddomain.Page, error)
}

// Aggregator fans a query out over every linked account of a principal.
type Aggregator interface {
	Aggregate(ctx context.Context, principalUserID string, q recorddomain.Query) (*recorddomain.AggregatePage, error)
}

// Syncer copies provider items of one account into the mirror.
type Syncer interface {
	Sync(ctx context.Context, accountID string, maxItems int) (*recorddomain.SyncOutcome, error)
}

// RecordUsecase is the cached entry point for one record kind.
type RecordUsecase interface {
	Kind() recorddomain.Kind
	ListForAccount(ctx context.Context, principalUserID, accountID string, q recorddomain.Query) (*recorddomain.Page, error)
	SearchForAccount(ctx context.Context, principalUserID, accountID string, q recorddomain.Query) (*recorddomain.Page, error)
	Aggregate(ctx context.Context, principalUserID string, q recorddomain.Query) (*recorddomain.AggregatePage, error)
	GetItem(ctx context.Context, principalUserID, accountID, externalID string) (*recorddomain.Item, error)
	Stats(ctx context.Context, principalUserID string) ([]*recorddomain.AccountStats, error)

	CreateItem(ctx context.Context, principalUserID, accountID string, in *recorddomain.ItemInput) (*recorddomain.Item, error)
	UpdateItem(ctx context.Context, principalUserID, accountID, externalID string, in *recorddomain.ItemInput) (*recorddomain.Item, error)
	DeleteItem(ctx context.Context, principalUserID, accountID, externalID string) error

	Sync(ctx context.Context, principalUserID, accountID string, maxItems int) (*recorddomain.SyncOutcome, error)
	// SyncAccount is used by the scheduler, which already holds the account.
	SyncAccount(ctx context.Context, account *accountdomain.LinkedAccount, maxItems int) (*recorddomain.SyncOutcome, error)

	InvalidateAccount(ctx context.Context, principalUserID, accountID string) error
}
