package leaderboardrouter

import (
	"context"

	leaderboardhandlers "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/handlers"
)

// Router interface for leaderboard routing.
type Router interface {
	Configure(routerCtx context.Context, handlers leaderboardhandlers.Handlers) error
	Close() error
}
