package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/config"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/feed"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/infrastructure/feedsrc"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/infrastructure/rediscache"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/infrastructure/scheduler"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/infrastructure/storage"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/infrastructure/telegram"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/logging"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/server"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db    *sql.DB
	redis *redis.Client

	jobs *usecase.Jobs
	ops  *server.Server
}

// New builds the runnable application: store connections, adapters, use
// cases, recurring jobs, and the ops API.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	registry := feed.NewRegistry()
	registry.Register(feedsrc.NewJSONFeed(nil))
	registry.Register(feedsrc.NewHTMLFeed(nil))
	feeds := feedsrc.NewStrategySource(registry, cfg.Providers, baseLogger.With("component", "feeds"))

	siteSrc := rediscache.NewSiteCache(redisClient, sitesFromConfig(cfg.Sites),
		baseLogger.With("component", "sitecache"))
	locker := rediscache.NewRunLocker(redisClient)

	products := storage.NewProductStore(db)
	deals := storage.NewDealStore(db)
	runs := storage.NewRunStore(db)
	gates := usecase.NewGateChecker(storage.NewGateStore(db))

	var notifier ports.Notifier
	if cfg.Alerts.TelegramBotToken != "" && cfg.Alerts.TelegramChatID != "" {
		notifier = telegram.NewNotifier(cfg.Alerts.TelegramBotToken, cfg.Alerts.TelegramChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feeds:      feeds,
		Products:   products,
		Deals:      deals,
		Runs:       runs,
		Gates:      gates,
		SiteSrc:    siteSrc,
		Locker:     locker,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
		RunLockTTL: cfg.Pipeline.RunLockTTL,
	})

	siteRouter := usecase.NewSiteRouter(products, siteSrc, cfg.Pipeline.RouterBatchSize,
		baseLogger.With("component", "router"))
	sweep := usecase.NewExpirySweep(deals, cfg.Pipeline.SweepBatchSize,
		baseLogger.With("component", "sweep"), nil)
	publicDeals := usecase.NewPublicDeals(deals, products, cfg.Pipeline.StalenessWindow,
		cfg.Pipeline.SweepBatchSize, baseLogger.With("component", "publicdeals"), nil)

	bindings := bindingsFromConfig(cfg.Providers)
	jobs := usecase.NewJobs(pipeline, sweep, siteRouter, bindings,
		usecase.JobIntervals{
			Ingest: cfg.Scheduler.IngestEvery,
			Sweep:  cfg.Scheduler.SweepEvery,
			Retag:  cfg.Scheduler.RetagEvery,
		},
		func() ports.Scheduler { return scheduler.NewIntervalScheduler() },
		baseLogger.With("component", "jobs"))

	ops := server.New(pipeline, siteRouter, sweep, publicDeals, runs, siteSrc, bindings,
		baseLogger.With("component", "server"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		redis:  redisClient,
		jobs:   jobs,
		ops:    ops,
	}, nil
}

// Run starts the recurring jobs and serves the ops API until ctx cancels.
func (a *Application) Run(ctx context.Context) error {
	if err := a.jobs.Start(ctx); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}
	defer func() {
		_ = a.jobs.Stop(context.Background())
	}()

	a.logger.Info("service started", "addr", a.cfg.Server.Addr,
		"sites", len(a.cfg.Sites), "providers", len(a.cfg.Providers))
	return a.ops.ListenAndServe(ctx, a.cfg.Server.Addr)
}

// Close releases store connections.
func (a *Application) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func sitesFromConfig(cfg []config.SiteConfig) []domain.Site {
	sites := make([]domain.Site, 0, len(cfg))
	for _, sc := range cfg {
		sites = append(sites, domain.Site{
			Key:                 sc.Key,
			Domain:              sc.Domain,
			Enabled:             sc.Enabled,
			DefaultCategories:   sc.DefaultCategories,
			AffiliatePriorities: sc.AffiliatePriorities,
		})
	}
	return sites
}

func bindingsFromConfig(cfg []config.ProviderConfig) []usecase.SourceBinding {
	bindings := make([]usecase.SourceBinding, 0, len(cfg))
	for _, pc := range cfg {
		bindings = append(bindings, usecase.SourceBinding{Source: pc.Name, SiteKey: pc.SiteKey})
	}
	return bindings
}
