package usecase

import (
	"context"
	"errors"
	"fmt"

	accountusecase "unibox-backend/internal/account/usecase"
	"unibox-backend/internal/errs"
	recorddomain "unibox-backend/internal/record/domain"
	"unibox-backend/internal/record/repository"

	"go.uber.org/zap"
)

// queryService implements QueryService interface
type queryService struct {
	broker   accountusecase.TokenBroker
	provider recorddomain.Provider
	mirror   repository.MirrorRepository
	log      *zap.Logger
}

// NewQueryService creates a new instance of queryService
func NewQueryService(broker accountusecase.TokenBroker, provider recorddomain.Provider, mirror repository.MirrorRepository, log *zap.Logger) QueryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &queryService{
		broker:   broker,
		provider: provider,
		mirror:   mirror,
		log:      log.Named("query").With(zap.String("kind", string(provider.Kind()))),
	}
}

// Query asks the provider for page*limit items (capped at the provider's
// maximum) and slices the requested page locally. Remote failures fall back
// to the mirror; an empty mirror surfaces the remote error.
func (s *queryService) Query(ctx context.Context, accountID string, q recorddomain.Query) (*recorddomain.Page, error) {
	page, remoteErr := s.queryRemote(ctx, accountID, q)
	if remoteErr == nil {
		return page, nil
	}
	if errors.Is(remoteErr, errs.ErrAccountNotFound) {
		return nil, remoteErr
	}

	s.log.Warn("provider query failed, using mirror",
		zap.String("account_id", accountID),
		zap.Error(remoteErr),
	)

	items, total, err := s.mirror.List(ctx, accountID, repository.MirrorQuery{
		Kind:    s.provider.Kind(),
		TimeMin: q.TimeMin,
		TimeMax: q.TimeMax,
		Search:  q.Search,
		Offset:  q.Offset(),
		Limit:   q.Limit,
	})
	if err != nil {
		return nil, errors.Join(remoteErr, fmt.Errorf("mirror query: %w", err))
	}
	if total == 0 {
		return nil, errors.Join(remoteErr, errs.ErrMirrorEmpty)
	}

	result := newPage(items, int(total), q)
	result.FromMirror = true
	return result, nil
}

func (s *queryService) queryRemote(ctx context.Context, accountID string, q recorddomain.Query) (*recorddomain.Page, error) {
	token, err := s.broker.GetValidAccessToken(ctx, accountID)
	if err != nil {
		return nil, err
	}

	want := min(q.Page*q.Limit, s.provider.MaxResults())
	remote, err := s.provider.List(ctx, token, recorddomain.ProviderQuery{
		TimeMin:    q.TimeMin,
		TimeMax:    q.TimeMax,
		Search:     q.Search,
		MaxResults: want,
	})
	if err != nil {
		return nil, err
	}

	total := max(remote.Total, len(remote.Items))
	start, end := recorddomain.SliceBounds(len(remote.Items), q.Offset(), q.Limit)
	return newPage(remote.Items[start:end], total, q), nil
}

func newPage(items []*recorddomain.Item, total int, q recorddomain.Query) *recorddomain.Page {
	if items == nil {
		items = []*recorddomain.Item{}
	}
	totalPages, hasNext, hasPrev := recorddomain.PageMeta(total, q.Page, q.Limit)
	return &recorddomain.Page{
		Items:           items,
		Total:           total,
		Page:            q.Page,
		Limit:           q.Limit,
		TotalPages:      totalPages,
		HasNextPage:     hasNext,
		HasPreviousPage: hasPrev,
	}
}
