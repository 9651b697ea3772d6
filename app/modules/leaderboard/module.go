package leaderboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	leaderboardservice "github.com/Permavault-Club/season-engine/app/modules/leaderboard/application"
	leaderboardhandlers "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/handlers"
	leaderboarddb "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/repositories"
	leaderboardrouter "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/router"
	"github.com/Permavault-Club/season-engine/config"
	"github.com/Permavault-Club/season-engine/internal/eventbus"
	"github.com/Permavault-Club/season-engine/internal/observability"
	"github.com/Permavault-Club/season-engine/internal/utils"
)

// Module represents the leaderboard module.
type Module struct {
	EventBus           eventbus.EventBus
	LeaderboardService leaderboardservice.Service
	LeaderboardRouter  *leaderboardrouter.LeaderboardRouter
	config             *config.Config
	observability      observability.Observability
	helper             utils.Helpers
	cancelFunc         context.CancelFunc
}

// NewLeaderboardModule creates a new instance of the Leaderboard module. The
// seasons provider is late-bound by the caller because the season module is
// constructed after this one.
func NewLeaderboardModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	seasons leaderboardservice.SeasonProvider,
	eventBus eventbus.EventBus,
	router *message.Router,
	helpers utils.Helpers,
	routerCtx context.Context,
) (*Module, error) {
	logger := obs.Provider.Logger
	metrics := obs.Registry.LeaderboardMetrics
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "leaderboard.NewLeaderboardModule called")

	repo := leaderboarddb.NewRepository(db)
	leaderboardService := leaderboardservice.NewLeaderboardService(repo, seasons, logger, metrics, tracer, db)
	handlers := leaderboardhandlers.NewLeaderboardHandlers(leaderboardService, logger, tracer, helpers, metrics)

	leaderboardRouter := leaderboardrouter.NewLeaderboardRouter(
		logger,
		router,
		eventBus,
		eventBus,
		cfg,
		helpers,
		tracer,
		obs.Provider.PrometheusRegistry,
	)
	if err := leaderboardRouter.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure leaderboard router: %w", err)
	}

	return &Module{
		EventBus:           eventBus,
		LeaderboardService: leaderboardService,
		LeaderboardRouter:  leaderboardRouter,
		config:             cfg,
		observability:      obs,
		helper:             helpers,
	}, nil
}

// Run keeps the module alive until the context is canceled. The router
// actually processes messages; this goroutine only anchors the lifecycle.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Leaderboard module goroutine stopped")
}

// Close stops the leaderboard module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping leaderboard module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.LeaderboardRouter != nil {
		if err := m.LeaderboardRouter.Close(); err != nil {
			logger.Error("Error closing LeaderboardRouter from module", "error", err)
			return fmt.Errorf("error closing LeaderboardRouter: %w", err)
		}
	}

	logger.Info("Leaderboard module stopped")
	return nil
}
