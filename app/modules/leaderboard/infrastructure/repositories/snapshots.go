package leaderboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// SaveVoteSnapshot records the tally-time hash for a cycle. Re-tallying the
// same cycle overwrites the previous snapshot.
func (r *Impl) SaveVoteSnapshot(ctx context.Context, db bun.IDB, snapshot *VoteSnapshot) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(snapshot).
		On("CONFLICT (cycle_id) DO UPDATE").
		Set("snapshot_hash = EXCLUDED.snapshot_hash").
		Set("entry_count = EXCLUDED.entry_count").
		Set("taken_at = EXCLUDED.taken_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leaderboarddb.SaveVoteSnapshot: %w", err)
	}
	return nil
}

// GetVoteSnapshot retrieves the tally-time hash for a cycle. Returns
// (nil, nil) when the cycle has not been tallied.
func (r *Impl) GetVoteSnapshot(ctx context.Context, db bun.IDB, cycleID int64) (*VoteSnapshot, error) {
	db = r.resolveDB(db)
	snapshot := new(VoteSnapshot)
	err := db.NewSelect().
		Model(snapshot).
		Where("cycle_id = ?", cycleID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("leaderboarddb.GetVoteSnapshot: %w", err)
	}
	return snapshot, nil
}
