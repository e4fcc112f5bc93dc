package scheduler

import (
	"context"
	"sync"
	"time"

	accountusecase "unibox-backend/internal/account/usecase"
	"unibox-backend/internal/record/usecase"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SyncScheduler periodically syncs the mirror of every active linked account.
type SyncScheduler struct {
	directory   accountusecase.AccountDirectory
	usecases    []usecase.RecordUsecase
	interval    time.Duration
	maxItems    int
	maxParallel int
	log         *zap.Logger

	stopChan chan struct{}
	cancel   context.CancelFunc
	done     sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopped  bool
}

// NewSyncScheduler creates a new scheduler. An interval of 0 disables it.
func NewSyncScheduler(
	directory accountusecase.AccountDirectory,
	usecases []usecase.RecordUsecase,
	interval time.Duration,
	maxItems int,
	maxParallel int,
	log *zap.Logger,
) *SyncScheduler {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncScheduler{
		directory:   directory,
		usecases:    usecases,
		interval:    interval,
		maxItems:    maxItems,
		maxParallel: maxParallel,
		log:         log.Named("sync-scheduler"),
		stopChan:    make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *SyncScheduler) Start() {
	if s.interval <= 0 {
		s.log.Info("sync scheduler disabled")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.log.Info("starting sync scheduler", zap.Duration("interval", s.interval))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done.Add(1)
	go func() {
		defer s.done.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-s.stopChan:
				s.log.Info("sync scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler. A pass in progress is cancelled and
// Stop waits for it to return.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return
	}
	s.stopped = true
	s.cancel()
	close(s.stopChan)
	s.done.Wait()
}

// RunOnce syncs every active account for every record kind. Failures are
// logged per account and do not stop the pass.
func (s *SyncScheduler) RunOnce(ctx context.Context) {
	accounts, err := s.directory.ListAllActive(ctx)
	if err != nil {
		s.log.Error("list active accounts", zap.Error(err))
		return
	}
	if len(accounts) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(s.maxParallel)
	for _, account := range accounts {
		for _, uc := range s.usecases {
			g.Go(func() error {
				outcome, err := uc.SyncAccount(ctx, account, s.maxItems)
				if err != nil {
					s.log.Warn("scheduled sync failed",
						zap.String("account_id", account.ID),
						zap.String("kind", string(uc.Kind())),
						zap.Error(err),
					)
					return nil
				}
				s.log.Info("scheduled sync",
					zap.String("account_id", account.ID),
					zap.String("kind", string(uc.Kind())),
					zap.Int("inserted", outcome.RecordsInserted),
					zap.Int("updated", outcome.RecordsUpdated),
					zap.Int64("elapsed_ms", outcome.ElapsedMs),
				)
				return nil
			})
		}
	}
	_ = g.Wait()
}
