package leaderboardservice

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/uptrace/bun"

	leaderboarddomain "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain"
	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	leaderboardtypes "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/types"
	"github.com/Permavault-Club/season-engine/internal/attr"
	"github.com/Permavault-Club/season-engine/internal/results"
)

// ReconcileVote folds a recorded vote into its cycle's ranking using the
// service wrapper. Business failures (missing cycle context, invalid votes)
// come back as failure payloads; infrastructure failures as errors.
func (s *LeaderboardService) ReconcileVote(ctx context.Context, payload leaderboardevents.VoteRecordedPayload) (ReconcileResult, error) {
	return withTelemetry(s, ctx, "ReconcileVote", int64(payload.CycleID), func(ctx context.Context) (ReconcileResult, error) {
		votes, err := votesFromPayload(payload)
		if err != nil {
			return reconcileFailure(payload, err.Error()), nil
		}

		cycle, err := s.resolveCycle(ctx, payload)
		if err != nil {
			return ReconcileResult{}, err
		}
		if !leaderboarddomain.ShouldProcessVote(cycle) {
			return reconcileFailure(payload, "vote carries no cycle and no season is active"), nil
		}

		updated := leaderboarddomain.Entry{
			EntityID:   payload.EntityID,
			TotalVotes: votes,
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ReconcileResult, error) {
			rows, err := s.repo.GetEntries(ctx, db, cycle.CycleID)
			if err != nil {
				return ReconcileResult{}, err
			}
			entries, err := rowsToEntries(rows)
			if err != nil {
				return ReconcileResult{}, err
			}

			ranked, err := leaderboarddomain.Reconcile(entries, updated)
			if err != nil {
				return reconcileFailure(payload, err.Error()), nil
			}

			now := time.Now().UTC()
			if err := s.repo.BulkUpsertEntries(ctx, db, entriesToRows(cycle.CycleID, ranked, now)); err != nil {
				return ReconcileResult{}, err
			}
			s.metrics.RecordBatchSize(ctx, "ReconcileVote", len(ranked))

			return results.SuccessResult[leaderboardevents.RankUpdatedPayload, leaderboardevents.ReconcileFailedPayload](
				leaderboardevents.RankUpdatedPayload{
					CycleID:      leaderboardtypes.CycleID(cycle.CycleID),
					Entries:      entriesToRanked(ranked),
					SnapshotHash: leaderboarddomain.ComputeSnapshotHash(ranked),
					UpdatedAt:    now,
				},
			), nil
		})
	})
}

// resolveCycle determines which cycle the vote belongs to. A provider
// failure is fatal only when the payload has no explicit cycle to fall
// back on.
func (s *LeaderboardService) resolveCycle(ctx context.Context, payload leaderboardevents.VoteRecordedPayload) (leaderboarddomain.CycleContext, error) {
	var current int64
	if s.seasons != nil {
		resolved, err := s.seasons.CurrentSeason(ctx)
		if err != nil {
			if !payload.CycleID.IsValid() {
				return leaderboarddomain.CycleContext{}, fmt.Errorf("resolve current season: %w", err)
			}
			s.logger.WarnContext(ctx, "Season lookup failed, using the vote's explicit cycle",
				attr.ExtractCorrelationID(ctx),
				attr.String("entity_id", payload.EntityID),
				attr.Error(err),
			)
		} else {
			current = resolved
		}
	}
	return leaderboarddomain.ResolveCycleForVote(int64(payload.CycleID), current), nil
}

// votesFromPayload extracts the new absolute vote total from the event,
// converting from a raw token amount when no total is given.
func votesFromPayload(payload leaderboardevents.VoteRecordedPayload) (*big.Int, error) {
	if payload.TotalVotes != "" {
		votes, err := payload.TotalVotes.BigInt()
		if err != nil {
			return nil, err
		}
		return votes, nil
	}

	if payload.TokenAmount != "" {
		amount, err := payload.TokenAmount.BigInt()
		if err != nil {
			return nil, err
		}
		decimals := payload.TokenDecimals
		if decimals == 0 {
			decimals = leaderboarddomain.DefaultTokenDecimals
		}
		return leaderboarddomain.VotesFromTokenAmount(amount, decimals)
	}

	return nil, fmt.Errorf("vote for entity %s carries neither total votes nor a token amount", payload.EntityID)
}

func reconcileFailure(payload leaderboardevents.VoteRecordedPayload, reason string) ReconcileResult {
	return results.FailureResult[leaderboardevents.RankUpdatedPayload](
		leaderboardevents.ReconcileFailedPayload{
			EntityID: payload.EntityID,
			CycleID:  payload.CycleID,
			Reason:   reason,
		},
	)
}
