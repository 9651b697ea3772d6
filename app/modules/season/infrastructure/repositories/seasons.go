package seasondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new season repository.
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

// GetSeason retrieves one season by number. Returns (nil, nil) when the
// season has no record yet.
func (r *Impl) GetSeason(ctx context.Context, db bun.IDB, number int64) (*Season, error) {
	db = r.resolveDB(db)
	season := new(Season)
	err := db.NewSelect().
		Model(season).
		Where("number = ?", number).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("seasondb.GetSeason: %w", err)
	}
	return season, nil
}

// GetActiveSeason retrieves the currently active season. Returns (nil, nil)
// when no season is active.
func (r *Impl) GetActiveSeason(ctx context.Context, db bun.IDB) (*Season, error) {
	db = r.resolveDB(db)
	season := new(Season)
	err := db.NewSelect().
		Model(season).
		Where("status = ?", seasondomain.StatusActive).
		Order("number DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("seasondb.GetActiveSeason: %w", err)
	}
	return season, nil
}

// UpsertSeason creates or refreshes a season record keyed by its number.
// Status is deliberately left out of the update set so a re-run of the
// prepare phase cannot regress a season that was already activated.
func (r *Impl) UpsertSeason(ctx context.Context, db bun.IDB, season *Season) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(season).
		On("CONFLICT (number) DO UPDATE").
		Set("year = EXCLUDED.year").
		Set("week = EXCLUDED.week").
		Set("starts_at = EXCLUDED.starts_at").
		Set("ends_at = EXCLUDED.ends_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seasondb.UpsertSeason: %w", err)
	}
	return nil
}

// SetSeasonStatus updates one season's lifecycle status. Returns
// ErrNoRowsAffected when the season has no row, so a status flip against a
// never-prepared season cannot pass for a success.
func (r *Impl) SetSeasonStatus(ctx context.Context, db bun.IDB, number int64, status seasondomain.SeasonStatus) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Season)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("number = ?", number).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seasondb.SetSeasonStatus: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("seasondb.SetSeasonStatus: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("seasondb.SetSeasonStatus season %d: %w", number, ErrNoRowsAffected)
	}
	return nil
}

// SetSeasonFolderRef records the storage folder prepared for a season.
// Returns ErrNoRowsAffected when the season has no row.
func (r *Impl) SetSeasonFolderRef(ctx context.Context, db bun.IDB, number int64, folderRef string) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Season)(nil)).
		Set("folder_ref = ?", folderRef).
		Set("updated_at = ?", time.Now().UTC()).
		Where("number = ?", number).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seasondb.SetSeasonFolderRef: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("seasondb.SetSeasonFolderRef: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("seasondb.SetSeasonFolderRef season %d: %w", number, ErrNoRowsAffected)
	}
	return nil
}

// ListSeasons retrieves seasons ordered newest first.
func (r *Impl) ListSeasons(ctx context.Context, db bun.IDB, limit int) ([]Season, error) {
	db = r.resolveDB(db)
	var seasons []Season
	q := db.NewSelect().
		Model(&seasons).
		Order("number DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("seasondb.ListSeasons: %w", err)
	}
	return seasons, nil
}
