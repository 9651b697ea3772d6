package seasondomain

import "time"

// Phase is the lifecycle phase of a season at a given instant.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseVoting    Phase = "voting"
	PhaseTallying  Phase = "tallying"
	PhaseRewarding Phase = "rewarding"
)

// PhaseAt returns the lifecycle phase at t.
//
// Rules, checked in order:
//   - idle during the first hour after the season starts
//   - tallying on the season's last day between 22:00 and 23:59 UTC
//   - rewarding during the first two hours of a season (after the idle hour)
//   - voting otherwise
func (c Clock) PhaseAt(t time.Time) Phase {
	t = t.UTC()
	start := c.Boundaries(c.SeasonNumber(t)).Start

	switch {
	case t.Sub(start) < time.Hour:
		return PhaseIdle
	case t.Weekday() == time.Sunday && t.Hour() >= 22:
		return PhaseTallying
	case t.Sub(start) < 2*time.Hour:
		return PhaseRewarding
	default:
		return PhaseVoting
	}
}

// TransitionPhase is one ordered unit of season rollover work.
type TransitionPhase string

const (
	TransitionPhasePrepare  TransitionPhase = "prepare_next_season"
	TransitionPhaseTally    TransitionPhase = "tally_votes"
	TransitionPhaseFinalize TransitionPhase = "finalize_season"
	TransitionPhaseComplete TransitionPhase = "transition_complete"
)

// TransitionPhases lists the rollover phases in execution order.
var TransitionPhases = []TransitionPhase{
	TransitionPhasePrepare,
	TransitionPhaseTally,
	TransitionPhaseFinalize,
	TransitionPhaseComplete,
}

// TransitionPhaseForMinute maps a minute of the transition hour onto its
// phase sub-window: 0-14 prepare, 15-29 tally, 30-44 finalize, 45-59
// complete. A once-per-minute trigger therefore walks all four phases within
// the hour.
func TransitionPhaseForMinute(minute int) (TransitionPhase, bool) {
	switch {
	case minute < 0 || minute > 59:
		return "", false
	case minute < 15:
		return TransitionPhasePrepare, true
	case minute < 30:
		return TransitionPhaseTally, true
	case minute < 45:
		return TransitionPhaseFinalize, true
	default:
		return TransitionPhaseComplete, true
	}
}

// Description returns the operator-facing summary of a phase.
func (p TransitionPhase) Description() string {
	switch p {
	case TransitionPhasePrepare:
		return "prepare next season storage and database record"
	case TransitionPhaseTally:
		return "snapshot vote totals for the ending season"
	case TransitionPhaseFinalize:
		return "finalize the ending season"
	case TransitionPhaseComplete:
		return "activate the next season and archive the previous one"
	default:
		return "unknown phase"
	}
}
