package leaderboarddb

import (
	"time"

	"github.com/uptrace/bun"
)

// LeaderboardEntry is one ranked row of a season cycle. The composite key
// (entity_id, cycle_id) makes reconciliation upserts idempotent per cycle.
// Vote totals are stored as numeric(78,0) so uint256-scale token-derived
// totals survive round-tripping.
type LeaderboardEntry struct {
	bun.BaseModel `bun:"table:leaderboard_entries,alias:le"`

	EntityID   string    `bun:"entity_id,pk"`
	CycleID    int64     `bun:"cycle_id,pk"`
	TotalVotes string    `bun:"total_votes,type:numeric(78,0),notnull,default:'0'"`
	Rank       int64     `bun:"rank,notnull,default:0"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// VoteSnapshot records the deterministic hash of a cycle's entry set at
// tally time. The transition orchestrator uses it to detect an already
// tallied cycle on re-runs.
type VoteSnapshot struct {
	bun.BaseModel `bun:"table:leaderboard_vote_snapshots,alias:vs"`

	CycleID      int64     `bun:"cycle_id,pk"`
	SnapshotHash string    `bun:"snapshot_hash,notnull"`
	EntryCount   int       `bun:"entry_count,notnull,default:0"`
	TakenAt      time.Time `bun:"taken_at,nullzero,notnull,default:current_timestamp"`
}
