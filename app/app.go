// Package app wires the season engine together: database, event bus,
// watermill router, the two modules, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	leaderboardmodule "github.com/Permavault-Club/season-engine/app/modules/leaderboard"
	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	leaderboardadapters "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/adapters"
	seasonmodule "github.com/Permavault-Club/season-engine/app/modules/season"
	seasonevents "github.com/Permavault-Club/season-engine/app/modules/season/domain/events"
	seasonadapters "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/adapters"
	seasonhandlers "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/handlers"
	seasonqueue "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/queue"
	"github.com/Permavault-Club/season-engine/config"
	"github.com/Permavault-Club/season-engine/db/bundb"
	"github.com/Permavault-Club/season-engine/internal/alerts"
	"github.com/Permavault-Club/season-engine/internal/attr"
	"github.com/Permavault-Club/season-engine/internal/eventbus"
	"github.com/Permavault-Club/season-engine/internal/httpapi"
	"github.com/Permavault-Club/season-engine/internal/observability"
	"github.com/Permavault-Club/season-engine/internal/utils"
	jwtauth "github.com/Permavault-Club/season-engine/pkg/jwt"
)

// streamNames are the JetStream streams provisioned at startup.
var streamNames = []string{
	seasonevents.SeasonStreamName,
	leaderboardevents.LeaderboardStreamName,
	alerts.SystemStreamName,
}

// App owns every long-lived component of the service.
type App struct {
	Config            *config.Config
	Observability     observability.Observability
	DB                *bun.DB
	EventBus          eventbus.EventBus
	WatermillRouter   *message.Router
	LeaderboardModule *leaderboardmodule.Module
	SeasonModule      *seasonmodule.Module
	HTTPServer        *httpapi.Server

	logger        *slog.Logger
	helpers       utils.Helpers
	alertListener *alerts.Listener
	routerCtx     context.Context
	routerCancel  context.CancelFunc
	wg            sync.WaitGroup
}

// NewApp builds the whole dependency graph. The leaderboard module is
// constructed first with an unbound season lookup; the season module then
// receives the leaderboard service as its tally port, and the lookup is
// bound last to close the cycle.
func NewApp(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	logger := obs.Provider.Logger

	db, err := bundb.NewDB(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus, err := eventbus.NewEventBus(
		ctx,
		cfg.NATS.URL,
		logger,
		"season-engine",
		cfg.NATS.NKeySeedFile,
		obs.Registry.EventBusMetrics,
		obs.Registry.Tracer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	for _, streamName := range streamNames {
		if err := bus.CreateStream(ctx, streamName); err != nil {
			bus.Close()
			return nil, fmt.Errorf("failed to create stream %q: %w", streamName, err)
		}
	}

	watermillRouter, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	helpers := utils.NewHelpers(logger)
	routerCtx, routerCancel := context.WithCancel(ctx)

	seasonLookup := leaderboardadapters.NewSeasonLookupAdapter()

	leaderboardModule, err := leaderboardmodule.NewLeaderboardModule(
		ctx, cfg, obs, db, seasonLookup, bus, watermillRouter, helpers, routerCtx,
	)
	if err != nil {
		routerCancel()
		bus.Close()
		return nil, fmt.Errorf("failed to initialize leaderboard module: %w", err)
	}

	seasonModule, err := seasonmodule.NewSeasonModule(
		ctx, cfg, obs, db,
		seasonadapters.NewLeaderboardTallyAdapter(leaderboardModule.LeaderboardService),
		bus, helpers,
	)
	if err != nil {
		routerCancel()
		bus.Close()
		return nil, fmt.Errorf("failed to initialize season module: %w", err)
	}

	seasonLookup.Bind(seasonModule.SeasonService)

	tokens := jwtauth.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.DefaultTTL)
	apiHandlers := seasonhandlers.NewHandlers(
		seasonModule.SeasonService,
		leaderboardModule.LeaderboardService,
		seasonModule.Queue,
		logger,
		nil,
	)
	httpServer := httpapi.NewServer(
		cfg.HTTP.Addr,
		apiHandlers,
		tokens,
		obs.Provider.PrometheusRegistry,
		healthChecks(db, bus, seasonModule.Queue),
		logger,
	)

	return &App{
		Config:            cfg,
		Observability:     obs,
		DB:                db,
		EventBus:          bus,
		WatermillRouter:   watermillRouter,
		LeaderboardModule: leaderboardModule,
		SeasonModule:      seasonModule,
		HTTPServer:        httpServer,
		logger:            logger,
		helpers:           helpers,
		alertListener:     alerts.NewListener(bus, logger),
		routerCtx:         routerCtx,
		routerCancel:      routerCancel,
	}, nil
}

// Run starts the router, the modules, the alert listener, and the HTTP
// listener, then blocks until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := app.WatermillRouter.Run(app.routerCtx); err != nil && !errors.Is(err, context.Canceled) {
			app.logger.Error("Watermill router stopped", attr.Error(err))
		}
	}()

	select {
	case <-app.WatermillRouter.Running():
	case <-time.After(10 * time.Second):
		return errors.New("watermill router failed to start")
	}

	app.wg.Add(2)
	go app.LeaderboardModule.Run(ctx, &app.wg)
	go app.SeasonModule.Run(ctx, &app.wg)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := app.alertListener.Run(ctx); err != nil {
			app.logger.Error("Alert listener stopped", attr.Error(err))
		}
	}()

	app.HTTPServer.Start(ctx)
	app.logger.InfoContext(ctx, "Season engine started", attr.String("http_addr", app.Config.HTTP.Addr))

	<-ctx.Done()
	app.logger.Info("Shutdown signal received")
	return app.Close()
}

// Close shuts the application down in dependency order: HTTP first so no new
// work arrives, then the modules, the router, the bus, and the database.
func (app *App) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error

	if app.HTTPServer != nil {
		if err := app.HTTPServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	if app.SeasonModule != nil {
		if err := app.SeasonModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("season module: %w", err))
		}
	}
	if app.LeaderboardModule != nil {
		if err := app.LeaderboardModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("leaderboard module: %w", err))
		}
	}

	app.routerCancel()
	if app.WatermillRouter != nil {
		if err := app.WatermillRouter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("watermill router: %w", err))
		}
	}

	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		app.logger.Warn("Shutdown timed out waiting for goroutines")
	}

	app.logger.Info("Season engine stopped")
	return errors.Join(errs...)
}

func healthChecks(db *bun.DB, bus eventbus.EventBus, queue seasonqueue.QueueService) []httpapi.HealthCheck {
	checks := []httpapi.HealthCheck{
		{Name: "database", Check: db.PingContext},
		{Name: "queue", Check: queue.HealthCheck},
	}
	for _, hc := range bus.GetHealthCheckers() {
		checks = append(checks, httpapi.HealthCheck{
			Name: hc.Name(),
			Check: func(ctx context.Context) error {
				if !hc.Healthy() {
					return fmt.Errorf("%s unhealthy", hc.Name())
				}
				return nil
			},
		})
	}
	return checks
}
