package seasondb

import (
	"time"

	"github.com/uptrace/bun"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
)

// Season is the persisted record of one weekly season.
type Season struct {
	bun.BaseModel `bun:"table:seasons,alias:s"`

	Number    int64                     `bun:"number,pk"`
	Year      int                       `bun:"year,notnull"`
	Week      string                    `bun:"week,notnull"` // ISO week, e.g. "2026-W33"
	StartsAt  time.Time                 `bun:"starts_at,notnull"`
	EndsAt    time.Time                 `bun:"ends_at,notnull"`
	Status    seasondomain.SeasonStatus `bun:"status,notnull,default:'preparing'"`
	FolderRef string                    `bun:"folder_ref"`
	CreatedAt time.Time                 `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time                 `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// SeasonTransition is one rollover attempt for a (from_season, to_season)
// pair. The pair is unique; re-triggered phases mutate the same row. Only the
// transition orchestrator writes it.
type SeasonTransition struct {
	bun.BaseModel `bun:"table:season_transitions,alias:st"`

	ID              string                         `bun:"id,pk,type:uuid"`
	FromSeason      int64                          `bun:"from_season,notnull"`
	ToSeason        int64                          `bun:"to_season,notnull"`
	PhasesCompleted []seasondomain.TransitionPhase `bun:"phases_completed,array"`
	CurrentPhase    seasondomain.TransitionPhase   `bun:"current_phase"`
	Status          seasondomain.TransitionStatus  `bun:"status,notnull,default:'in_progress'"`
	ErrorMessage    string                         `bun:"error_message"`
	StartedAt       time.Time                      `bun:"started_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time                      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
