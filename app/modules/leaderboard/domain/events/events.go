package leaderboardevents

import (
	"fmt"
	"time"

	leaderboardtypes "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/types"
)

// LeaderboardStreamName is the JetStream stream leaderboard subjects live on.
const LeaderboardStreamName = "leaderboard"

// Leaderboard-related subjects
const (
	VoteRecordedSubject    = "leaderboard.vote.recorded.v1"
	RankUpdatedSubject     = "leaderboard.rank.updated.v1"
	ReconcileFailedSubject = "leaderboard.reconcile.failed.v1"
)

// VoteRecordedPayload is consumed when the voting pipeline records a vote
// update for an entity. It either carries the new absolute total, or a raw
// token amount that still needs conversion.
type VoteRecordedPayload struct {
	EntityID      string                     `json:"entity_id"`
	CycleID       leaderboardtypes.CycleID   `json:"cycle_id,omitempty"`
	TotalVotes    leaderboardtypes.VoteCount `json:"total_votes,omitempty"`
	TokenAmount   leaderboardtypes.VoteCount `json:"token_amount,omitempty"`
	TokenDecimals uint8                      `json:"token_decimals,omitempty"`
	RecordedAt    time.Time                  `json:"recorded_at"`
}

// RankedEntry is one row of a published ranking.
type RankedEntry struct {
	EntityID   string                     `json:"entity_id"`
	TotalVotes leaderboardtypes.VoteCount `json:"total_votes"`
	Rank       int64                      `json:"rank"`
}

// RankUpdatedPayload is published after a vote update has been reconciled
// into the cycle's ranking.
type RankUpdatedPayload struct {
	CycleID      leaderboardtypes.CycleID `json:"cycle_id"`
	Entries      []RankedEntry            `json:"entries"`
	SnapshotHash string                   `json:"snapshot_hash"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// ReconcileFailedPayload is published when a vote update could not be folded
// into a ranking.
type ReconcileFailedPayload struct {
	EntityID string                   `json:"entity_id"`
	CycleID  leaderboardtypes.CycleID `json:"cycle_id,omitempty"`
	Reason   string                   `json:"reason"`
}

// --- Errors ---

type ErrReconcileFailed struct {
	Reason string
}

func (e *ErrReconcileFailed) Error() string {
	return fmt.Sprintf("leaderboard reconcile failed: %s", e.Reason)
}
