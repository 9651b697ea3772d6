// Package httpapi mounts the season read API and the transition trigger
// endpoint on one HTTP listener, together with health and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	seasonhandlers "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/handlers"
	"github.com/Permavault-Club/season-engine/internal/attr"
	jwtauth "github.com/Permavault-Club/season-engine/pkg/jwt"
)

// HealthCheck is one named liveness probe surfaced on /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server is the HTTP surface of the service.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the server with all routes mounted. The trigger endpoint
// sits behind bearer auth and a strict per-IP limiter; everything else shares
// a generous one.
func NewServer(
	addr string,
	handlers *seasonhandlers.Handlers,
	tokens jwtauth.Service,
	registry *prometheus.Registry,
	checks []HealthCheck,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	router.Get("/healthz", healthHandler(checks, logger))
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	apiLimiter := NewIPRateLimiter(20, 40)
	triggerLimiter := NewIPRateLimiter(1, 3)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(apiLimiter))

		r.Get("/seasons/current", handlers.HandleCurrentSeason)
		r.Get("/seasons/compare", handlers.HandleCompareState)
		r.Get("/seasons/{number}", handlers.HandleGetSeason)
		r.Get("/seasons/{number}/leaderboard", handlers.HandleSeasonLeaderboard)
		r.Get("/seasons/{number}/leaderboard/chart.png", handlers.HandleSeasonChart)
		r.Get("/seasons/{number}/export.xlsx", handlers.HandleSeasonExport)
		r.Get("/clock", handlers.HandleClock)
		r.Get("/transitions", handlers.HandleListTransitions)
		r.Get("/transitions/ticks", handlers.HandleRecentTicks)

		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(triggerLimiter))
			r.Use(BearerAuthMiddleware(tokens))
			r.Post("/transition/trigger", handlers.HandleTriggerTransition)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: logger,
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start(ctx context.Context) {
	s.logger.InfoContext(ctx, "Starting HTTP server", attr.String("addr", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", attr.Error(err))
		}
	}()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make(map[string]string, len(checks))
		healthy := true

		for _, c := range checks {
			if err := c.Check(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "Health check failed", attr.String("check", c.Name), attr.Error(err))
				results[c.Name] = err.Error()
				healthy = false
				continue
			}
			results[c.Name] = "ok"
		}

		status := http.StatusOK
		body := map[string]any{"status": "ok", "checks": results}
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
