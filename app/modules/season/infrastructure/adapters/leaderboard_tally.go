package adapters

import (
	"context"

	leaderboardservice "github.com/Permavault-Club/season-engine/app/modules/leaderboard/application"
	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
)

// LeaderboardTallyAdapter adapts the leaderboard service to the transition
// orchestrator's VoteTally port. Season numbers double as leaderboard cycle
// IDs, so the mapping is direct.
type LeaderboardTallyAdapter struct {
	leaderboardService leaderboardservice.Service
}

func NewLeaderboardTallyAdapter(leaderboardService leaderboardservice.Service) *LeaderboardTallyAdapter {
	return &LeaderboardTallyAdapter{leaderboardService: leaderboardService}
}

func (a *LeaderboardTallyAdapter) TallyVotes(ctx context.Context, seasonNumber int64) error {
	result, err := a.leaderboardService.TallyCycle(ctx, seasonNumber)
	if err != nil {
		return err
	}
	if result.IsFailure() {
		return &leaderboardevents.ErrReconcileFailed{Reason: result.Failure.Reason}
	}
	return nil
}

func (a *LeaderboardTallyAdapter) Standings(ctx context.Context, seasonNumber int64) ([]seasonservice.StandingRow, error) {
	entries, err := a.leaderboardService.GetRanking(ctx, seasonNumber)
	if err != nil {
		return nil, err
	}
	rows := make([]seasonservice.StandingRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, seasonservice.StandingRow{
			EntityID:   entry.EntityID,
			TotalVotes: entry.TotalVotes.String(),
			Rank:       entry.Rank,
		})
	}
	return rows, nil
}

var _ seasonservice.VoteTally = (*LeaderboardTallyAdapter)(nil)
