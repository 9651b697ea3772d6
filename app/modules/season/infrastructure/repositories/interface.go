package seasondb

import (
	"context"

	"github.com/uptrace/bun"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
)

// Repository is the persistence surface for seasons and their transitions.
// Methods take an explicit bun.IDB so they compose under transactions; a nil
// db falls back to the repository's own connection. Single-row getters return
// (nil, nil) when the record does not exist.
type Repository interface {
	// Seasons
	GetSeason(ctx context.Context, db bun.IDB, number int64) (*Season, error)
	GetActiveSeason(ctx context.Context, db bun.IDB) (*Season, error)
	UpsertSeason(ctx context.Context, db bun.IDB, season *Season) error
	SetSeasonStatus(ctx context.Context, db bun.IDB, number int64, status seasondomain.SeasonStatus) error
	SetSeasonFolderRef(ctx context.Context, db bun.IDB, number int64, folderRef string) error
	ListSeasons(ctx context.Context, db bun.IDB, limit int) ([]Season, error)

	// Transitions
	GetTransition(ctx context.Context, db bun.IDB, fromSeason, toSeason int64) (*SeasonTransition, error)
	InsertTransitionIfAbsent(ctx context.Context, db bun.IDB, transition *SeasonTransition) error
	UpdateTransition(ctx context.Context, db bun.IDB, transition *SeasonTransition) error
	ListTransitions(ctx context.Context, db bun.IDB, limit int) ([]SeasonTransition, error)
}
