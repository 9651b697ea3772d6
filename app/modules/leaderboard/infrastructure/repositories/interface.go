package leaderboarddb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for leaderboard persistence.
// All methods are context-aware for cancellation and timeout propagation,
// and accept an optional bun.IDB so callers can supply a transaction.
//
// Error semantics:
//   - Single-row getters return (nil, nil) when the record does not exist
//   - ErrNoRowsAffected: UPDATE/DELETE matched no rows
//   - Other errors: Infrastructure failures (DB connection, query errors)
type Repository interface {
	// GetEntries retrieves a cycle's full ranking ordered by rank ascending.
	GetEntries(ctx context.Context, db bun.IDB, cycleID int64) ([]LeaderboardEntry, error)

	// TopEntries retrieves the first limit rows of a cycle's ranking.
	TopEntries(ctx context.Context, db bun.IDB, cycleID int64, limit int) ([]LeaderboardEntry, error)

	// GetEntry retrieves a single entity's row for a cycle.
	GetEntry(ctx context.Context, db bun.IDB, cycleID int64, entityID string) (*LeaderboardEntry, error)

	// BulkUpsertEntries writes a reconciled ranking in one statement.
	// Conflicts on (entity_id, cycle_id) update votes, rank and updated_at.
	BulkUpsertEntries(ctx context.Context, db bun.IDB, entries []*LeaderboardEntry) error

	// CountEntries returns the number of ranked entities in a cycle.
	CountEntries(ctx context.Context, db bun.IDB, cycleID int64) (int, error)

	// SaveVoteSnapshot records the tally-time hash for a cycle.
	SaveVoteSnapshot(ctx context.Context, db bun.IDB, snapshot *VoteSnapshot) error

	// GetVoteSnapshot retrieves the tally-time hash for a cycle.
	GetVoteSnapshot(ctx context.Context, db bun.IDB, cycleID int64) (*VoteSnapshot, error)
}
