package leaderboardhandlers

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	leaderboardservice "github.com/Permavault-Club/season-engine/app/modules/leaderboard/application"
	"github.com/Permavault-Club/season-engine/internal/handlerwrapper"
	"github.com/Permavault-Club/season-engine/internal/observability"
	"github.com/Permavault-Club/season-engine/internal/results"
	"github.com/Permavault-Club/season-engine/internal/utils"
)

// LeaderboardHandlers implements the Handlers interface for leaderboard events.
type LeaderboardHandlers struct {
	service leaderboardservice.Service
	helpers utils.Helpers
}

// NewLeaderboardHandlers creates a new LeaderboardHandlers instance.
func NewLeaderboardHandlers(service leaderboardservice.Service, logger *slog.Logger, tracer trace.Tracer, helpers utils.Helpers, metrics observability.LeaderboardMetrics) *LeaderboardHandlers {
	return &LeaderboardHandlers{
		service: service,
		helpers: helpers,
	}
}

// mapOperationResult converts a service OperationResult to handler Results.
func mapOperationResult[S any, F any](
	result results.OperationResult[S, F],
	successTopic, failureTopic string,
) []handlerwrapper.Result {
	handlerResults := result.MapToHandlerResults(successTopic, failureTopic)

	wrapperResults := make([]handlerwrapper.Result, len(handlerResults))
	for i, hr := range handlerResults {
		wrapperResults[i] = handlerwrapper.Result{
			Topic:   hr.Topic,
			Payload: hr.Payload,
		}
	}

	return wrapperResults
}
