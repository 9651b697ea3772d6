package leaderboardhandlers

import (
	"context"

	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	"github.com/Permavault-Club/season-engine/internal/handlerwrapper"
)

// Handlers defines the event handlers for the leaderboard module.
type Handlers interface {
	HandleVoteRecorded(ctx context.Context, payload *leaderboardevents.VoteRecordedPayload) ([]handlerwrapper.Result, error)
}
