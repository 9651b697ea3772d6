package seasonservice

import (
	"context"
	"fmt"
	"time"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
)

// CurrentState resolves the canonical season state. Never fails; an
// unreachable authoritative source degrades to the calculated state.
func (s *SeasonService) CurrentState(ctx context.Context) seasondomain.SeasonState {
	return s.resolver.Resolve(ctx)
}

// CompareState reports calculated vs authoritative season numbers for
// operators.
func (s *SeasonService) CompareState(ctx context.Context) StateComparison {
	return s.resolver.Compare(ctx)
}

// GetSeason returns one season's view. Persisted rows win; seasons the
// database has never seen are synthesized from the clock, so callers may ask
// about any positive season number.
func (s *SeasonService) GetSeason(ctx context.Context, number int64) (SeasonView, error) {
	if number <= 0 {
		return SeasonView{}, fmt.Errorf("season number must be positive, got %d", number)
	}

	row, err := s.repo.GetSeason(ctx, nil, number)
	if err != nil {
		return SeasonView{}, fmt.Errorf("load season %d: %w", number, err)
	}
	if row != nil {
		return SeasonView{
			Number:    row.Number,
			Year:      row.Year,
			Week:      row.Week,
			Start:     row.StartsAt,
			End:       row.EndsAt,
			Status:    row.Status,
			FolderRef: row.FolderRef,
		}, nil
	}

	boundaries := s.clock.Boundaries(number)
	year, _ := seasondomain.ISOWeek(boundaries.Start)
	return SeasonView{
		Number: number,
		Year:   year,
		Week:   seasondomain.ISOWeekString(boundaries.Start),
		Start:  boundaries.Start,
		End:    boundaries.End,
		Status: seasondomain.StatusAt(s.now().UTC(), boundaries.Start, boundaries.End),
	}, nil
}

// ListTransitions returns recent rollover records, newest first.
func (s *SeasonService) ListTransitions(ctx context.Context, limit int) ([]TransitionView, error) {
	rows, err := s.repo.ListTransitions(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}

	views := make([]TransitionView, 0, len(rows))
	for _, row := range rows {
		phases := make([]string, 0, len(row.PhasesCompleted))
		for _, p := range row.PhasesCompleted {
			phases = append(phases, string(p))
		}
		views = append(views, TransitionView{
			ID:              row.ID,
			FromSeason:      row.FromSeason,
			ToSeason:        row.ToSeason,
			PhasesCompleted: phases,
			CurrentPhase:    string(row.CurrentPhase),
			Status:          string(row.Status),
			ErrorMessage:    row.ErrorMessage,
			StartedAt:       row.StartedAt,
			UpdatedAt:       row.UpdatedAt,
		})
	}
	return views, nil
}

// ClockAt describes the season clock at an arbitrary instant. NextWindowOpens
// is always strictly in the future, even when the window is open at the
// queried instant.
func (s *SeasonService) ClockAt(at time.Time) ClockInfo {
	at = at.UTC()
	number := s.clock.SeasonNumber(at)
	boundaries := s.clock.Boundaries(number)

	opens := boundaries.Start.Add(6*24*time.Hour + 23*time.Hour)
	if !at.Before(opens) {
		opens = opens.Add(seasondomain.SeasonLength)
	}

	return ClockInfo{
		At:               at,
		SeasonNumber:     number,
		Start:            boundaries.Start,
		End:              boundaries.End,
		Phase:            s.clock.PhaseAt(at),
		ISOWeek:          seasondomain.ISOWeekString(at),
		TransitionWindow: seasondomain.IsTransitionWindow(at),
		ShouldTransition: s.clock.ShouldTransition(at),
		NextWindowOpens:  opens,
	}
}
