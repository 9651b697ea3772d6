package leaderboardservice

import (
	"context"

	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	"github.com/Permavault-Club/season-engine/internal/results"
)

// SeasonProvider reports the currently active season cycle. The season
// module satisfies it through an adapter so votes without an explicit cycle
// land on the running season.
type SeasonProvider interface {
	CurrentSeason(ctx context.Context) (int64, error)
}

// ReconcileResult is the outcome of folding one vote update into a ranking.
type ReconcileResult = results.OperationResult[leaderboardevents.RankUpdatedPayload, leaderboardevents.ReconcileFailedPayload]

// TallyOutcome describes a tallied cycle.
type TallyOutcome struct {
	CycleID        int64  `json:"cycle_id"`
	EntryCount     int    `json:"entry_count"`
	SnapshotHash   string `json:"snapshot_hash"`
	AlreadyTallied bool   `json:"already_tallied"`
}

// TallyResult is the outcome of snapshotting a cycle's votes.
type TallyResult = results.OperationResult[TallyOutcome, leaderboardevents.ReconcileFailedPayload]

// Service defines the interface for the LeaderboardService.
type Service interface {
	// ReconcileVote folds a recorded vote into its cycle's ranking and
	// returns the full reranked view.
	ReconcileVote(ctx context.Context, payload leaderboardevents.VoteRecordedPayload) (ReconcileResult, error)

	// TallyCycle recomputes a cycle's ranking and records its snapshot hash.
	// Re-running on unchanged votes is a no-op.
	TallyCycle(ctx context.Context, cycleID int64) (TallyResult, error)

	// RebuildRanking recomputes ranks from stored vote totals, repairing a
	// corrupted ordering without touching the tally snapshot.
	RebuildRanking(ctx context.Context, cycleID int64) (ReconcileResult, error)

	// GetRanking returns a cycle's ranking ordered by rank ascending.
	GetRanking(ctx context.Context, cycleID int64) ([]leaderboardevents.RankedEntry, error)

	// ExportRanking renders a cycle's ranking as an XLSX workbook.
	ExportRanking(ctx context.Context, cycleID int64) ([]byte, error)

	// RenderChart renders the top entries of a cycle as a PNG bar chart.
	RenderChart(ctx context.Context, cycleID int64, top int) ([]byte, error)
}
