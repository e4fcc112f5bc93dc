package usecase

import (
	"context"
	"sort"
	"time"

	accountusecase "unibox-backend/internal/account/usecase"
	recorddomain "unibox-backend/internal/record/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPerAccountCap is how many items each branch requests before the merge.
const DefaultPerAccountCap = 100

// AggregatorConfig tunes the fan-out.
type AggregatorConfig struct {
	PerAccountCap int
	BranchTimeout time.Duration
	// MaxParallel bounds concurrent branches; 0 means one goroutine per account.
	MaxParallel int
}

// aggregator implements Aggregator interface
type aggregator struct {
	directory accountusecase.AccountDirectory
	query     QueryService
	cfg       AggregatorConfig
	log       *zap.Logger
}

// NewAggregator creates a new instance of aggregator
func NewAggregator(directory accountusecase.AccountDirectory, query QueryService, cfg AggregatorConfig, log *zap.Logger) Aggregator {
	if cfg.PerAccountCap <= 0 {
		cfg.PerAccountCap = DefaultPerAccountCap
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &aggregator{
		directory: directory,
		query:     query,
		cfg:       cfg,
		log:       log.Named("aggregator"),
	}
}

type branchResult struct {
	items []*recorddomain.AggregatedItem
	ok    bool
}

// Aggregate queries every active account concurrently, merges the successful
// branches, sorts them newest first and slices the requested page. A failing
// branch only drops that account from the result.
//
// Each branch fetches at most PerAccountCap items, so an account with more
// matches than the cap can lose older items that would rank inside the global
// page.
func (a *aggregator) Aggregate(ctx context.Context, principalUserID string, q recorddomain.Query) (*recorddomain.AggregatePage, error) {
	accounts, err := a.directory.ListLinkedAccounts(ctx, principalUserID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return buildAggregatePage(nil, nil, q), nil
	}

	branchQuery := q
	branchQuery.Page = 1
	branchQuery.Limit = a.cfg.PerAccountCap

	results := make([]branchResult, len(accounts))
	var g errgroup.Group
	if a.cfg.MaxParallel > 0 {
		g.SetLimit(a.cfg.MaxParallel)
	}
	for i, account := range accounts {
		g.Go(func() error {
			results[i] = a.runBranch(ctx, account.ID, account.Label(), branchQuery)
			return nil
		})
	}
	_ = g.Wait()
	// Branches share the caller's context, so their failures say nothing
	// about the accounts once it is done.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []*recorddomain.AggregatedItem
	participated := make([]string, 0, len(accounts))
	for i, res := range results {
		if !res.ok {
			continue
		}
		participated = append(participated, accounts[i].Label())
		merged = append(merged, res.items...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp().After(merged[j].Timestamp())
	})

	a.log.Debug("aggregate merged",
		zap.String("principal_user_id", principalUserID),
		zap.Int("accounts", len(accounts)),
		zap.Int("participated", len(participated)),
		zap.Int("items", len(merged)),
	)
	return buildAggregatePage(merged, participated, q), nil
}

func (a *aggregator) runBranch(ctx context.Context, accountID, label string, q recorddomain.Query) (res branchResult) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("aggregate branch panicked",
				zap.String("account_id", accountID),
				zap.Any("panic", r),
			)
			res = branchResult{}
		}
	}()

	if a.cfg.BranchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.BranchTimeout)
		defer cancel()
	}

	page, err := a.query.Query(ctx, accountID, q)
	if err != nil {
		a.log.Warn("account excluded from aggregate",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return branchResult{}
	}
	if page == nil {
		return branchResult{ok: true}
	}

	items := make([]*recorddomain.AggregatedItem, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, &recorddomain.AggregatedItem{
			Item:               *item,
			SourceAccountID:    accountID,
			SourceAccountLabel: label,
		})
	}
	return branchResult{items: items, ok: true}
}

func buildAggregatePage(merged []*recorddomain.AggregatedItem, participated []string, q recorddomain.Query) *recorddomain.AggregatePage {
	if participated == nil {
		participated = []string{}
	}
	total := len(merged)
	start, end := recorddomain.SliceBounds(total, q.Offset(), q.Limit)
	items := make([]*recorddomain.AggregatedItem, 0, end-start)
	items = append(items, merged[start:end]...)

	totalPages, hasNext, hasPrev := recorddomain.PageMeta(total, q.Page, q.Limit)
	return &recorddomain.AggregatePage{
		Items:                items,
		Total:                total,
		Page:                 q.Page,
		Limit:                q.Limit,
		TotalPages:           totalPages,
		HasNextPage:          hasNext,
		HasPreviousPage:      hasPrev,
		AccountsParticipated: participated,
	}
}
