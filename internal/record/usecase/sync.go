package usecase

import (
	"context"
	"fmt"
	"time"

	accountusecase "unibox-backend/internal/account/usecase"
	recorddomain "unibox-backend/internal/record/domain"
	"unibox-backend/internal/record/repository"

	"go.uber.org/zap"
)

// SyncConfig tunes mirror synchronization.
type SyncConfig struct {
	BatchSize int
	// Lookback is how far back the sync window starts.
	Lookback time.Duration
}

// syncService implements Syncer interface
type syncService struct {
	broker   accountusecase.TokenBroker
	provider recorddomain.Provider
	mirror   repository.MirrorRepository
	cfg      SyncConfig
	log      *zap.Logger
	now      func() time.Time
}

// NewSyncService creates a new instance of syncService
func NewSyncService(broker accountusecase.TokenBroker, provider recorddomain.Provider, mirror repository.MirrorRepository, cfg SyncConfig, log *zap.Logger) Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &syncService{
		broker:   broker,
		provider: provider,
		mirror:   mirror,
		cfg:      cfg,
		log:      log.Named("sync").With(zap.String("kind", string(provider.Kind()))),
		now:      time.Now,
	}
}

// Sync fetches up to maxItems provider items and upserts them into the mirror
// in one transaction. On failure nothing is written and no outcome is returned.
func (s *syncService) Sync(ctx context.Context, accountID string, maxItems int) (*recorddomain.SyncOutcome, error) {
	started := s.now()
	if maxItems <= 0 || maxItems > s.provider.MaxResults() {
		maxItems = s.provider.MaxResults()
	}

	token, err := s.broker.GetValidAccessToken(ctx, accountID)
	if err != nil {
		return nil, err
	}

	q := recorddomain.ProviderQuery{MaxResults: maxItems}
	if s.cfg.Lookback > 0 {
		q.TimeMin = started.Add(-s.cfg.Lookback).UTC()
	}
	page, err := s.provider.List(ctx, token, q)
	if err != nil {
		return nil, fmt.Errorf("fetch items for sync: %w", err)
	}

	res, err := s.mirror.UpsertBatch(ctx, accountID, page.Items, s.cfg.BatchSize, started)
	if err != nil {
		s.log.Error("sync rolled back", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}

	outcome := &recorddomain.SyncOutcome{
		RecordsInserted: res.Inserted,
		RecordsUpdated:  res.Updated,
		TotalProcessed:  res.Inserted + res.Updated,
		ElapsedMs:       s.now().Sub(started).Milliseconds(),
	}
	s.log.Info("sync completed",
		zap.String("account_id", accountID),
		zap.Int("inserted", outcome.RecordsInserted),
		zap.Int("updated", outcome.RecordsUpdated),
		zap.Int64("elapsed_ms", outcome.ElapsedMs),
	)
	return outcome, nil
}
