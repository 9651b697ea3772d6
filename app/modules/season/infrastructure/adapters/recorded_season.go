package adapters

import (
	"context"

	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	seasondb "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/repositories"
)

// RecordedSeasonAdapter reads the database's notion of the active season for
// the resolver's sync diagnostics. No active row is not an error; it just
// means nothing is synced yet.
type RecordedSeasonAdapter struct {
	repo seasondb.Repository
}

func NewRecordedSeasonAdapter(repo seasondb.Repository) *RecordedSeasonAdapter {
	return &RecordedSeasonAdapter{repo: repo}
}

func (a *RecordedSeasonAdapter) ActiveSeason(ctx context.Context) (int64, bool, error) {
	season, err := a.repo.GetActiveSeason(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	if season == nil {
		return 0, false, nil
	}
	return season.Number, season.FolderRef != "", nil
}

var _ seasonservice.RecordedSeasonSource = (*RecordedSeasonAdapter)(nil)
