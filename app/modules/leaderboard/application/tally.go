package leaderboardservice

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	leaderboarddomain "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain"
	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	leaderboardtypes "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/types"
	leaderboarddb "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/repositories"
	"github.com/Permavault-Club/season-engine/internal/results"
)

// TallyCycle recomputes a cycle's ranking and records its snapshot hash. A
// snapshot with the same hash already on record means the cycle was tallied
// with identical votes, so the re-run changes nothing.
func (s *LeaderboardService) TallyCycle(ctx context.Context, cycleID int64) (TallyResult, error) {
	return withTelemetry(s, ctx, "TallyCycle", cycleID, func(ctx context.Context) (TallyResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (TallyResult, error) {
			ranked, hash, err := s.rerankCycle(ctx, db, cycleID)
			if err != nil {
				return TallyResult{}, err
			}

			existing, err := s.repo.GetVoteSnapshot(ctx, db, cycleID)
			if err != nil {
				return TallyResult{}, err
			}
			if existing != nil && existing.SnapshotHash == hash {
				return results.SuccessResult[TallyOutcome, leaderboardevents.ReconcileFailedPayload](
					TallyOutcome{
						CycleID:        cycleID,
						EntryCount:     len(ranked),
						SnapshotHash:   hash,
						AlreadyTallied: true,
					},
				), nil
			}

			now := time.Now().UTC()
			if err := s.repo.BulkUpsertEntries(ctx, db, entriesToRows(cycleID, ranked, now)); err != nil {
				return TallyResult{}, err
			}
			if err := s.repo.SaveVoteSnapshot(ctx, db, &leaderboarddb.VoteSnapshot{
				CycleID:      cycleID,
				SnapshotHash: hash,
				EntryCount:   len(ranked),
				TakenAt:      now,
			}); err != nil {
				return TallyResult{}, err
			}
			s.metrics.RecordBatchSize(ctx, "TallyCycle", len(ranked))

			return results.SuccessResult[TallyOutcome, leaderboardevents.ReconcileFailedPayload](
				TallyOutcome{
					CycleID:      cycleID,
					EntryCount:   len(ranked),
					SnapshotHash: hash,
				},
			), nil
		})
	})
}

// RebuildRanking recomputes ranks from the stored vote totals. It repairs an
// ordering corrupted by partial writes without touching the tally snapshot.
func (s *LeaderboardService) RebuildRanking(ctx context.Context, cycleID int64) (ReconcileResult, error) {
	return withTelemetry(s, ctx, "RebuildRanking", cycleID, func(ctx context.Context) (ReconcileResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ReconcileResult, error) {
			ranked, hash, err := s.rerankCycle(ctx, db, cycleID)
			if err != nil {
				return ReconcileResult{}, err
			}

			now := time.Now().UTC()
			if err := s.repo.BulkUpsertEntries(ctx, db, entriesToRows(cycleID, ranked, now)); err != nil {
				return ReconcileResult{}, err
			}
			s.metrics.RecordBatchSize(ctx, "RebuildRanking", len(ranked))

			return results.SuccessResult[leaderboardevents.RankUpdatedPayload, leaderboardevents.ReconcileFailedPayload](
				leaderboardevents.RankUpdatedPayload{
					CycleID:      leaderboardtypes.CycleID(cycleID),
					Entries:      entriesToRanked(ranked),
					SnapshotHash: hash,
					UpdatedAt:    now,
				},
			), nil
		})
	})
}

// rerankCycle loads a cycle's rows and recomputes the full ordering.
func (s *LeaderboardService) rerankCycle(ctx context.Context, db bun.IDB, cycleID int64) ([]leaderboarddomain.Entry, string, error) {
	rows, err := s.repo.GetEntries(ctx, db, cycleID)
	if err != nil {
		return nil, "", err
	}
	entries, err := rowsToEntries(rows)
	if err != nil {
		return nil, "", err
	}

	ranked := leaderboarddomain.AssignRanks(entries)
	return ranked, leaderboarddomain.ComputeSnapshotHash(ranked), nil
}
