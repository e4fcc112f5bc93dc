package repository

import (
	"context"
	"time"

	recorddomain "unibox-backend/internal/record/domain"
)

// MirrorQuery filters mirror rows of one account and kind.
type MirrorQuery struct {
	Kind    recorddomain.Kind
	TimeMin time.Time
	TimeMax *time.Time
	// Search is matched case-insensitively against subject, description and location.
	Search string
	Offset int
	Limit  int
}

// MirrorStat is the per-account row count and latest sync time.
type MirrorStat struct {
	LinkedAccountID string
	Records         int64
	LastSyncedAt    *time.Time
}

// UpsertResult counts rows written by one upsert.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// MirrorRepository is the Local Mirror Store.
type MirrorRepository interface {
	// UpsertBatch writes items in batches inside one transaction, keyed by
	// (linked account, external id). Either every batch commits or none does.
	UpsertBatch(ctx context.Context, accountID string, items []*recorddomain.Item, batchSize int, syncedAt time.Time) (*UpsertResult, error)
	List(ctx context.Context, accountID string, q MirrorQuery) ([]*recorddomain.Item, int64, error)
	FindByExternalID(ctx context.Context, accountID, externalID string) (*recorddomain.SyncedRecord, error)
	DeleteByExternalID(ctx context.Context, accountID, externalID string) error
	Stats(ctx context.Context, kind recorddomain.Kind, accountIDs []string) ([]MirrorStat, error)
}
