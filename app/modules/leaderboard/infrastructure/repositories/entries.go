package leaderboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new leaderboard repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// GetEntries retrieves a cycle's full ranking ordered by rank ascending.
func (r *Impl) GetEntries(ctx context.Context, db bun.IDB, cycleID int64) ([]LeaderboardEntry, error) {
	db = r.resolveDB(db)
	var entries []LeaderboardEntry
	err := db.NewSelect().
		Model(&entries).
		Where("cycle_id = ?", cycleID).
		Order("rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboarddb.GetEntries: %w", err)
	}
	return entries, nil
}

// TopEntries retrieves the first limit rows of a cycle's ranking.
func (r *Impl) TopEntries(ctx context.Context, db bun.IDB, cycleID int64, limit int) ([]LeaderboardEntry, error) {
	db = r.resolveDB(db)
	var entries []LeaderboardEntry
	err := db.NewSelect().
		Model(&entries).
		Where("cycle_id = ?", cycleID).
		Order("rank ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboarddb.TopEntries: %w", err)
	}
	return entries, nil
}

// GetEntry retrieves a single entity's row for a cycle. Returns (nil, nil)
// when the entity has no row yet.
func (r *Impl) GetEntry(ctx context.Context, db bun.IDB, cycleID int64, entityID string) (*LeaderboardEntry, error) {
	db = r.resolveDB(db)
	entry := new(LeaderboardEntry)
	err := db.NewSelect().
		Model(entry).
		Where("cycle_id = ?", cycleID).
		Where("entity_id = ?", entityID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("leaderboarddb.GetEntry: %w", err)
	}
	return entry, nil
}

// BulkUpsertEntries writes a reconciled ranking in one statement.
func (r *Impl) BulkUpsertEntries(ctx context.Context, db bun.IDB, entries []*LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(&entries).
		On("CONFLICT (entity_id, cycle_id) DO UPDATE").
		Set("total_votes = EXCLUDED.total_votes").
		Set("rank = EXCLUDED.rank").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leaderboarddb.BulkUpsertEntries: %w", err)
	}
	return nil
}

// CountEntries returns the number of ranked entities in a cycle.
func (r *Impl) CountEntries(ctx context.Context, db bun.IDB, cycleID int64) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*LeaderboardEntry)(nil)).
		Where("cycle_id = ?", cycleID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("leaderboarddb.CountEntries: %w", err)
	}
	return count, nil
}
