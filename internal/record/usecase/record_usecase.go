package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	accountdomain "unibox-backend/internal/account/domain"
	accountusecase "unibox-backend/internal/account/usecase"
	"unibox-backend/internal/errs"
	recorddomain "unibox-backend/internal/record/domain"
	"unibox-backend/internal/record/repository"
	"unibox-backend/pkg/cache"

	"go.uber.org/zap"
)

// Cache operation names, prefixed with the record kind ("event.list").
const (
	opList      = "list"
	opSearch    = "search"
	opDetail    = "detail"
	opAggregate = "aggregate"
	opStats     = "stats"
)

// Deps groups what a record usecase is built from.
type Deps struct {
	Directory  accountusecase.AccountDirectory
	Broker     accountusecase.TokenBroker
	Provider   recorddomain.Provider
	Query      QueryService
	Aggregator Aggregator
	Syncer     Syncer
	Mirror     repository.MirrorRepository
	Cache      *cache.ReadThrough
	// SyncMaxItems is used when a sync request does not say how many items to fetch.
	SyncMaxItems int
}

// recordUsecase implements RecordUsecase interface
type recordUsecase struct {
	kind         recorddomain.Kind
	directory    accountusecase.AccountDirectory
	broker       accountusecase.TokenBroker
	provider     recorddomain.Provider
	writer       recorddomain.Writer
	query        QueryService
	aggregator   Aggregator
	syncer       Syncer
	mirror       repository.MirrorRepository
	cache        *cache.ReadThrough
	syncMaxItems int
	log          *zap.Logger
	now          func() time.Time
}

// NewRecordUsecase creates a new instance of recordUsecase. Writes are
// enabled when the provider also implements recorddomain.Writer.
func NewRecordUsecase(deps Deps, log *zap.Logger) RecordUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	writer, _ := deps.Provider.(recorddomain.Writer)
	kind := deps.Provider.Kind()
	return &recordUsecase{
		kind:         kind,
		directory:    deps.Directory,
		broker:       deps.Broker,
		provider:     deps.Provider,
		writer:       writer,
		query:        deps.Query,
		aggregator:   deps.Aggregator,
		syncer:       deps.Syncer,
		mirror:       deps.Mirror,
		cache:        deps.Cache,
		syncMaxItems: deps.SyncMaxItems,
		log:          log.Named(string(kind)),
		now:          time.Now,
	}
}

func (u *recordUsecase) Kind() recorddomain.Kind {
	return u.kind
}

func (u *recordUsecase) op(name string) string {
	return string(u.kind) + "." + name
}

func (u *recordUsecase) ListForAccount(ctx context.Context, principalUserID, accountID string, q recorddomain.Query) (*recorddomain.Page, error) {
	q.Search = ""
	q, err := q.Normalize(u.kind)
	if err != nil {
		return nil, err
	}
	if _, err := u.directory.GetLinkedAccount(ctx, principalUserID, accountID); err != nil {
		return nil, err
	}

	key := cache.Key(u.op(opList), accountID, q)
	return cache.Fetch(ctx, u.cache, key, cache.TTLList, func(ctx context.Context) (*recorddomain.Page, error) {
		return u.query.Query(ctx, accountID, q)
	})
}

func (u *recordUsecase) SearchForAccount(ctx context.Context, principalUserID, accountID string, q recorddomain.Query) (*recorddomain.Page, error) {
	q, err := q.Normalize(u.kind)
	if err != nil {
		return nil, err
	}
	if q.Search == "" {
		return nil, fmt.Errorf("%w: search term is required", errs.ErrValidation)
	}
	if _, err := u.directory.GetLinkedAccount(ctx, principalUserID, accountID); err != nil {
		return nil, err
	}

	key := cache.Key(u.op(opSearch), accountID, q)
	return cache.Fetch(ctx, u.cache, key, cache.TTLSearch, func(ctx context.Context) (*recorddomain.Page, error) {
		return u.query.Query(ctx, accountID, q)
	})
}

// Aggregate serves both the merged listing and the merged search. The search
// variant is cached with the shorter search TTL.
func (u *recordUsecase) Aggregate(ctx context.Context, principalUserID string, q recorddomain.Query) (*recorddomain.AggregatePage, error) {
	q, err := q.Normalize(u.kind)
	if err != nil {
		return nil, err
	}

	ttl := cache.TTLList
	if q.Search != "" {
		ttl = cache.TTLSearch
	}
	key := cache.Key(u.op(opAggregate), principalUserID, q)
	return cache.FetchIf(ctx, u.cache, key, ttl, func(ctx context.Context) (*recorddomain.AggregatePage, error) {
		return u.aggregator.Aggregate(ctx, principalUserID, q)
	}, participated)
}

// participated keeps pages no account contributed to out of the cache. Such a
// page is either a principal without accounts, which is cheap to recompute,
// or a batch where every branch failed, which must not outlive the outage.
func participated(p *recorddomain.AggregatePage) bool {
	return p != nil && len(p.AccountsParticipated) > 0
}

// GetItem reads one item from the provider, or from the mirror when the
// provider is unavailable.
func (u *recordUsecase) GetItem(ctx context.Context, principalUserID, accountID, externalID string) (*recorddomain.Item, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: item id is required", errs.ErrValidation)
	}
	if _, err := u.directory.GetLinkedAccount(ctx, principalUserID, accountID); err != nil {
		return nil, err
	}

	key := cache.Key(u.op(opDetail), accountID, externalID)
	return cache.Fetch(ctx, u.cache, key, cache.TTLDetail, func(ctx context.Context) (*recorddomain.Item, error) {
		return u.loadItem(ctx, accountID, externalID)
	})
}

func (u *recordUsecase) loadItem(ctx context.Context, accountID, externalID string) (*recorddomain.Item, error) {
	item, remoteErr := u.fetchRemote(ctx, accountID, externalID)
	if remoteErr == nil {
		return item, nil
	}
	if errors.Is(remoteErr, errs.ErrNotFound) || errors.Is(remoteErr, errs.ErrAccountNotFound) {
		return nil, remoteErr
	}

	u.log.Warn("provider get failed, using mirror",
		zap.String("account_id", accountID),
		zap.String("item_id", externalID),
		zap.Error(remoteErr),
	)
	rec, err := u.mirror.FindByExternalID(ctx, accountID, externalID)
	if err != nil {
		return nil, errors.Join(remoteErr, fmt.Errorf("mirror lookup: %w", err))
	}
	if rec == nil || rec.Kind != u.kind {
		return nil, errors.Join(remoteErr, errs.ErrMirrorEmpty)
	}
	return rec.ToItem(), nil
}

func (u *recordUsecase) fetchRemote(ctx context.Context, accountID, externalID string) (*recorddomain.Item, error) {
	token, err := u.broker.GetValidAccessToken(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return u.provider.Get(ctx, token, externalID)
}

// Stats reports the mirror size per active account, including accounts that
// were never synced.
func (u *recordUsecase) Stats(ctx context.Context, principalUserID string) ([]*recorddomain.AccountStats, error) {
	key := cache.Key(u.op(opStats), principalUserID, u.kind)
	return cache.Fetch(ctx, u.cache, key, cache.TTLStats, func(ctx context.Context) ([]*recorddomain.AccountStats, error) {
		accounts, err := u.directory.ListLinkedAccounts(ctx, principalUserID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(accounts))
		for _, acc := range accounts {
			ids = append(ids, acc.ID)
		}
		rows, err := u.mirror.Stats(ctx, u.kind, ids)
		if err != nil {
			return nil, fmt.Errorf("mirror stats: %w", err)
		}
		byAccount := make(map[string]repository.MirrorStat, len(rows))
		for _, row := range rows {
			byAccount[row.LinkedAccountID] = row
		}

		stats := make([]*recorddomain.AccountStats, 0, len(accounts))
		for _, acc := range accounts {
			row := byAccount[acc.ID]
			stats = append(stats, &recorddomain.AccountStats{
				AccountID:    acc.ID,
				AccountLabel: acc.Label(),
				Records:      row.Records,
				LastSyncedAt: row.LastSyncedAt,
			})
		}
		return stats, nil
	})
}

func (u *recordUsecase) CreateItem(ctx context.Context, principalUserID, accountID string, in *recorddomain.ItemInput) (*recorddomain.Item, error) {
	if u.writer == nil {
		return nil, fmt.Errorf("%w: %s records are read-only", errs.ErrUnsupported, u.kind)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	token, err := u.writableAccount(ctx, principalUserID, accountID)
	if err != nil {
		return nil, err
	}

	item, err := u.writer.Insert(ctx, token, in)
	if err != nil {
		return nil, err
	}
	u.mirrorItem(ctx, accountID, item)

	if err := u.InvalidateAccount(ctx, principalUserID, accountID); err != nil {
		return nil, err
	}
	return item, nil
}

func (u *recordUsecase) UpdateItem(ctx context.Context, principalUserID, accountID, externalID string, in *recorddomain.ItemInput) (*recorddomain.Item, error) {
	if u.writer == nil {
		return nil, fmt.Errorf("%w: %s records are read-only", errs.ErrUnsupported, u.kind)
	}
	if strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("%w: item id is required", errs.ErrValidation)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	token, err := u.writableAccount(ctx, principalUserID, accountID)
	if err != nil {
		return nil, err
	}

	item, err := u.writer.Update(ctx, token, externalID, in)
	if err != nil {
		return nil, err
	}
	u.mirrorItem(ctx, accountID, item)

	if err := u.InvalidateAccount(ctx, principalUserID, accountID); err != nil {
		return nil, err
	}
	return item, nil
}

func (u *recordUsecase) DeleteItem(ctx context.Context, principalUserID, accountID, externalID string) error {
	if u.writer == nil {
		return fmt.Errorf("%w: %s records are read-only", errs.ErrUnsupported, u.kind)
	}
	if strings.TrimSpace(externalID) == "" {
		return fmt.Errorf("%w: item id is required", errs.ErrValidation)
	}
	token, err := u.writableAccount(ctx, principalUserID, accountID)
	if err != nil {
		return err
	}

	if err := u.writer.Delete(ctx, token, externalID); err != nil {
		return err
	}
	if err := u.mirror.DeleteByExternalID(ctx, accountID, externalID); err != nil {
		u.log.Warn("mirror delete failed",
			zap.String("account_id", accountID),
			zap.String("item_id", externalID),
			zap.Error(err),
		)
	}

	return u.InvalidateAccount(ctx, principalUserID, accountID)
}

func (u *recordUsecase) writableAccount(ctx context.Context, principalUserID, accountID string) (string, error) {
	if _, err := u.directory.GetLinkedAccount(ctx, principalUserID, accountID); err != nil {
		return "", err
	}
	return u.broker.GetValidAccessToken(ctx, accountID)
}

// mirrorItem keeps the mirror in step with a successful remote write. The
// remote write is authoritative so a mirror failure is only logged.
func (u *recordUsecase) mirrorItem(ctx context.Context, accountID string, item *recorddomain.Item) {
	if item == nil {
		return
	}
	if _, err := u.mirror.UpsertBatch(ctx, accountID, []*recorddomain.Item{item}, 1, u.now()); err != nil {
		u.log.Warn("mirror upsert after write failed",
			zap.String("account_id", accountID),
			zap.String("item_id", item.ExternalID),
			zap.Error(err),
		)
	}
}

func (u *recordUsecase) Sync(ctx context.Context, principalUserID, accountID string, maxItems int) (*recorddomain.SyncOutcome, error) {
	if maxItems < 0 {
		return nil, fmt.Errorf("%w: maxItems must not be negative", errs.ErrValidation)
	}
	account, err := u.directory.GetLinkedAccount(ctx, principalUserID, accountID)
	if err != nil {
		return nil, err
	}
	return u.SyncAccount(ctx, account, maxItems)
}

func (u *recordUsecase) SyncAccount(ctx context.Context, account *accountdomain.LinkedAccount, maxItems int) (*recorddomain.SyncOutcome, error) {
	if maxItems == 0 {
		maxItems = u.syncMaxItems
	}
	outcome, err := u.syncer.Sync(ctx, account.ID, maxItems)
	if err != nil {
		return nil, err
	}
	if err := u.InvalidateAccount(ctx, account.PrincipalUserID, account.ID); err != nil {
		return nil, err
	}
	return outcome, nil
}

// InvalidateAccount drops every cached read of this kind that can include the
// account: its own list, search and detail entries plus the principal's
// aggregates and stats.
func (u *recordUsecase) InvalidateAccount(ctx context.Context, principalUserID, accountID string) error {
	err := u.cache.Invalidate(ctx,
		cache.ScopePrefix(u.op(opList), accountID),
		cache.ScopePrefix(u.op(opSearch), accountID),
		cache.ScopePrefix(u.op(opDetail), accountID),
		cache.ScopePrefix(u.op(opAggregate), principalUserID),
		cache.ScopePrefix(u.op(opStats), principalUserID),
	)
	if err != nil {
		return fmt.Errorf("invalidate cache for account %s: %w", accountID, err)
	}
	return nil
}

func validateInput(in *recorddomain.ItemInput) error {
	if in == nil {
		return fmt.Errorf("%w: body is required", errs.ErrValidation)
	}
	if strings.TrimSpace(in.Subject) == "" {
		return fmt.Errorf("%w: subject is required", errs.ErrValidation)
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", errs.ErrValidation)
	}
	if !in.EndTime.After(in.StartTime) {
		return fmt.Errorf("%w: endTime must be after startTime", errs.ErrValidation)
	}
	return nil
}
