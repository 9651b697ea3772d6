package leaderboardhandlers

import (
	"context"
	"errors"
	"fmt"

	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	"github.com/Permavault-Club/season-engine/internal/handlerwrapper"
)

// HandleVoteRecorded folds a recorded vote into the cycle ranking and
// publishes the updated standings.
func (h *LeaderboardHandlers) HandleVoteRecorded(ctx context.Context, payload *leaderboardevents.VoteRecordedPayload) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	result, err := h.service.ReconcileVote(ctx, *payload)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile vote for entity %s: %w", payload.EntityID, err)
	}

	return mapOperationResult(result, leaderboardevents.RankUpdatedSubject, leaderboardevents.ReconcileFailedSubject), nil
}
