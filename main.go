package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "unibox-backend/cmd/api"
	accountRepo "unibox-backend/internal/account/repository"
	accountUsecase "unibox-backend/internal/account/usecase"
	authRepo "unibox-backend/internal/auth/repository"
	authUsecase "unibox-backend/internal/auth/usecase"
	recorddomain "unibox-backend/internal/record/domain"
	recordRepo "unibox-backend/internal/record/repository"
	"unibox-backend/internal/record/scheduler"
	recordUsecase "unibox-backend/internal/record/usecase"
	"unibox-backend/pkg/cache"
	"unibox-backend/pkg/config"
	"unibox-backend/pkg/database"
	"unibox-backend/pkg/google"
	"unibox-backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}

	if err := run(cfg, zl); err != nil {
		zl.Error("server exited", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
	_ = zl.Sync()
}

// run wires the service and blocks until a signal or a server failure. Every
// deferred cleanup runs before it returns.
func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	store, closeCache, err := newCache(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeCache()
	readThrough := cache.NewReadThrough(store, zl)

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	linkedAccountRepo := accountRepo.NewLinkedAccountRepository(db)
	mirrorRepo := recordRepo.NewMirrorRepository(db)

	oauth := google.NewOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, cfg.ProviderTimeout)
	broker := accountUsecase.NewTokenBroker(linkedAccountRepo, oauth, zl)
	directory := accountUsecase.NewAccountDirectory(linkedAccountRepo)

	newRecords := func(provider recorddomain.Provider) recordUsecase.RecordUsecase {
		query := recordUsecase.NewQueryService(broker, provider, mirrorRepo, zl)
		aggregator := recordUsecase.NewAggregator(directory, query, recordUsecase.AggregatorConfig{
			PerAccountCap: cfg.AggregatePerAccountCap,
			BranchTimeout: cfg.AggregateBranchTimeout,
			MaxParallel:   cfg.AggregateMaxParallel,
		}, zl)
		syncer := recordUsecase.NewSyncService(broker, provider, mirrorRepo, recordUsecase.SyncConfig{
			BatchSize: cfg.SyncBatchSize,
			Lookback:  cfg.SyncLookback,
		}, zl)
		return recordUsecase.NewRecordUsecase(recordUsecase.Deps{
			Directory:    directory,
			Broker:       broker,
			Provider:     provider,
			Query:        query,
			Aggregator:   aggregator,
			Syncer:       syncer,
			Mirror:       mirrorRepo,
			Cache:        readThrough,
			SyncMaxItems: cfg.SyncMaxItems,
		}, zl)
	}

	// Initialize use cases (dependency injection)
	eventUsecase := newRecords(google.NewCalendarProvider(cfg.ProviderTimeout))
	emailUsecase := newRecords(google.NewGmailProvider(cfg.ProviderTimeout))

	accountUsecaseInstance := accountUsecase.NewAccountUsecase(linkedAccountRepo, directory, oauth, zl)
	accountUsecaseInstance.SetCacheInvalidators(eventUsecase, emailUsecase)

	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, cfg, zl)
	authUsecaseInstance.SetCacheInvalidators(eventUsecase, emailUsecase)

	syncScheduler := scheduler.NewSyncScheduler(
		directory,
		[]recordUsecase.RecordUsecase{eventUsecase, emailUsecase},
		cfg.SyncInterval,
		cfg.SyncMaxItems,
		cfg.AggregateMaxParallel,
		zl,
	)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, accountUsecaseInstance, eventUsecase, emailUsecase, cfg, zl)
	return handler.Serve(ctx, ":"+cfg.Port)
}

// newCache picks the redis or in-process cache backend from configuration.
func newCache(ctx context.Context, cfg *config.Config, zl *zap.Logger) (cache.Cache, func(), error) {
	if cfg.CacheDriver == "redis" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		zl.Info("cache backend ready", zap.String("driver", "redis"))
		return rc, func() { _ = rc.Close() }, nil
	}

	mem := cache.NewMemory()
	mem.Start()
	zl.Info("cache backend ready", zap.String("driver", "memory"))
	return mem, mem.Stop, nil
}
