package seasondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// GetTransition retrieves the rollover record for a season pair. Returns
// (nil, nil) when no attempt has been recorded yet.
func (r *Impl) GetTransition(ctx context.Context, db bun.IDB, fromSeason, toSeason int64) (*SeasonTransition, error) {
	db = r.resolveDB(db)
	transition := new(SeasonTransition)
	err := db.NewSelect().
		Model(transition).
		Where("from_season = ?", fromSeason).
		Where("to_season = ?", toSeason).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("seasondb.GetTransition: %w", err)
	}
	return transition, nil
}

// InsertTransitionIfAbsent creates the rollover record for a season pair,
// quietly keeping the existing row when a concurrent trigger created it
// first.
func (r *Impl) InsertTransitionIfAbsent(ctx context.Context, db bun.IDB, transition *SeasonTransition) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(transition).
		On("CONFLICT (from_season, to_season) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seasondb.InsertTransitionIfAbsent: %w", err)
	}
	return nil
}

// UpdateTransition writes the record's mutable fields back, keyed by the
// season pair so duplicate triggers converge on the same row.
func (r *Impl) UpdateTransition(ctx context.Context, db bun.IDB, transition *SeasonTransition) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model(transition).
		Set("phases_completed = ?", transition.PhasesCompleted).
		Set("current_phase = ?", transition.CurrentPhase).
		Set("status = ?", transition.Status).
		Set("error_message = ?", transition.ErrorMessage).
		Set("updated_at = ?", time.Now().UTC()).
		Where("from_season = ?", transition.FromSeason).
		Where("to_season = ?", transition.ToSeason).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seasondb.UpdateTransition: %w", err)
	}
	return nil
}

// ListTransitions retrieves rollover records newest first.
func (r *Impl) ListTransitions(ctx context.Context, db bun.IDB, limit int) ([]SeasonTransition, error) {
	db = r.resolveDB(db)
	var transitions []SeasonTransition
	q := db.NewSelect().
		Model(&transitions).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("seasondb.ListTransitions: %w", err)
	}
	return transitions, nil
}
