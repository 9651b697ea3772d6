package season

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/uptrace/bun"

	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	seasonadapters "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/adapters"
	seasonchain "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/chain"
	seasonlock "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/lock"
	seasonqueue "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/queue"
	seasondb "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/repositories"
	seasonstorage "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/storage"
	"github.com/Permavault-Club/season-engine/config"
	"github.com/Permavault-Club/season-engine/internal/alerts"
	"github.com/Permavault-Club/season-engine/internal/eventbus"
	"github.com/Permavault-Club/season-engine/internal/observability"
	"github.com/Permavault-Club/season-engine/internal/utils"
)

// Module represents the season module.
type Module struct {
	EventBus      eventbus.EventBus
	SeasonService seasonservice.Service
	Queue         seasonqueue.QueueService
	config        *config.Config
	observability observability.Observability
	helper        utils.Helpers
	cancelFunc    context.CancelFunc
}

// NewSeasonModule creates a new instance of the Season module and starts its
// tick queue. The tally port comes from the leaderboard module. When the
// chain registry is not configured the resolver serves calculated state only.
func NewSeasonModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	tally seasonservice.VoteTally,
	eventBus eventbus.EventBus,
	helpers utils.Helpers,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "season.NewSeasonModule called")

	repo := seasondb.NewRepository(db)
	clock := seasondomain.NewClock(cfg.EpochTime())

	var authoritative seasonservice.AuthoritativeSeasonSource
	if cfg.Chain.RPCURL != "" && cfg.Chain.RegistryAddress != "" {
		registry, err := seasonchain.NewRegistry(ctx, seasonchain.Config{
			RPCURL:          cfg.Chain.RPCURL,
			RegistryAddress: cfg.Chain.RegistryAddress,
			Timeout:         cfg.Chain.Timeout,
			RequestsPerSec:  cfg.Chain.RequestsPerSec,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build chain registry: %w", err)
		}
		authoritative = registry
	}

	resolver := seasonservice.NewStateResolver(
		clock,
		authoritative,
		seasonadapters.NewRecordedSeasonAdapter(repo),
		cfg.Season.CacheTTL,
		nil,
		logger,
		obs.Registry.SeasonMetrics,
	)

	store, err := seasonstorage.NewStore(ctx, seasonstorage.Config{
		Bucket:   cfg.Archive.Bucket,
		Region:   cfg.Archive.Region,
		Endpoint: cfg.Archive.Endpoint,
		Prefix:   cfg.Archive.Prefix,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive store: %w", err)
	}

	kv, err := eventBus.GetJetStream().CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: seasonlock.BucketName,
		TTL:    seasonlock.BucketTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create phase lock bucket: %w", err)
	}

	seasonService := seasonservice.NewSeasonService(
		repo,
		resolver,
		clock,
		store,
		tally,
		seasonlock.NewPhaseLock(kv, logger),
		eventBus,
		helpers,
		alerts.NewNotifier(eventBus, helpers, logger),
		nil,
		logger,
		obs.Registry.TransitionMetrics,
		tracer,
		db,
	)

	queue, err := seasonqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, seasonService)
	if err != nil {
		return nil, fmt.Errorf("failed to build tick queue: %w", err)
	}
	if err := queue.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start tick queue: %w", err)
	}

	return &Module{
		EventBus:      eventBus,
		SeasonService: seasonService,
		Queue:         queue,
		config:        cfg,
		observability: obs,
		helper:        helpers,
	}, nil
}

// Run keeps the module alive until the context is canceled. The tick queue
// does the actual work; this goroutine only anchors the lifecycle.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting season module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Season module goroutine stopped")
}

// Close stops the season module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping season module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.Queue != nil {
		if err := m.Queue.Stop(context.Background()); err != nil {
			logger.Error("Error stopping season tick queue", "error", err)
			return fmt.Errorf("error stopping season tick queue: %w", err)
		}
	}

	logger.Info("Season module stopped")
	return nil
}
