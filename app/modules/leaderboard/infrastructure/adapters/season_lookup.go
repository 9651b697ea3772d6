package adapters

import (
	"context"
	"errors"
	"sync"

	leaderboardservice "github.com/Permavault-Club/season-engine/app/modules/leaderboard/application"
	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
)

// SeasonLookupAdapter adapts the season service to the leaderboard's
// SeasonProvider port, so votes without an explicit cycle land on the
// currently running season. The season module is constructed after the
// leaderboard module, so the adapter starts unbound and is bound during
// application wiring.
type SeasonLookupAdapter struct {
	mu            sync.RWMutex
	seasonService seasonservice.Service
}

func NewSeasonLookupAdapter() *SeasonLookupAdapter {
	return &SeasonLookupAdapter{}
}

// Bind attaches the season service once it exists.
func (a *SeasonLookupAdapter) Bind(service seasonservice.Service) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seasonService = service
}

func (a *SeasonLookupAdapter) CurrentSeason(ctx context.Context) (int64, error) {
	a.mu.RLock()
	service := a.seasonService
	a.mu.RUnlock()

	if service == nil {
		return 0, errors.New("season service not bound")
	}
	state := service.CurrentState(ctx)
	return state.Current.Number, nil
}

var _ leaderboardservice.SeasonProvider = (*SeasonLookupAdapter)(nil)
