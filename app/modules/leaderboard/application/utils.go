package leaderboardservice

import (
	"fmt"
	"time"

	leaderboarddomain "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain"
	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	leaderboardtypes "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/types"
	leaderboarddb "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/repositories"
)

// rowToEntry converts a stored row into a domain entry.
func rowToEntry(row leaderboarddb.LeaderboardEntry) (leaderboarddomain.Entry, error) {
	votes, err := leaderboardtypes.VoteCount(row.TotalVotes).BigInt()
	if err != nil {
		return leaderboarddomain.Entry{}, fmt.Errorf("entity %s: %w", row.EntityID, err)
	}
	return leaderboarddomain.Entry{
		EntityID:   row.EntityID,
		TotalVotes: votes,
		Rank:       row.Rank,
	}, nil
}

// rowsToEntries converts a cycle's stored rows into domain entries.
func rowsToEntries(rows []leaderboarddb.LeaderboardEntry) ([]leaderboarddomain.Entry, error) {
	entries := make([]leaderboarddomain.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := rowToEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// entriesToRows converts a reconciled ranking into rows for persistence.
func entriesToRows(cycleID int64, entries []leaderboarddomain.Entry, now time.Time) []*leaderboarddb.LeaderboardEntry {
	rows := make([]*leaderboarddb.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, &leaderboarddb.LeaderboardEntry{
			EntityID:   entry.EntityID,
			CycleID:    cycleID,
			TotalVotes: string(leaderboardtypes.VoteCountFromBig(entry.TotalVotes)),
			Rank:       entry.Rank,
			UpdatedAt:  now,
		})
	}
	return rows
}

// entriesToRanked converts a ranking into its published wire form.
func entriesToRanked(entries []leaderboarddomain.Entry) []leaderboardevents.RankedEntry {
	ranked := make([]leaderboardevents.RankedEntry, 0, len(entries))
	for _, entry := range entries {
		ranked = append(ranked, leaderboardevents.RankedEntry{
			EntityID:   entry.EntityID,
			TotalVotes: leaderboardtypes.VoteCountFromBig(entry.TotalVotes),
			Rank:       entry.Rank,
		})
	}
	return ranked
}
