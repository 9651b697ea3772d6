package leaderboardservice

import (
	"context"

	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	leaderboardtypes "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/types"
)

// GetRanking returns a cycle's ranking ordered by rank ascending.
// Simple reads skip the telemetry wrapper; the HTTP layer already times them.
func (s *LeaderboardService) GetRanking(ctx context.Context, cycleID int64) ([]leaderboardevents.RankedEntry, error) {
	rows, err := s.repo.GetEntries(ctx, nil, cycleID)
	if err != nil {
		return nil, err
	}

	ranked := make([]leaderboardevents.RankedEntry, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, leaderboardevents.RankedEntry{
			EntityID:   row.EntityID,
			TotalVotes: leaderboardtypes.VoteCount(row.TotalVotes),
			Rank:       row.Rank,
		})
	}
	return ranked, nil
}
