package seasonevents

import "time"

// SeasonStreamName is the JetStream stream season subjects live on.
const SeasonStreamName = "season"

// Season-related subjects
const (
	SeasonTransitionedSubject    = "season.transitioned.v1"
	TransitionPhaseFailedSubject = "season.transition.phase.failed.v1"
)

// SeasonTransitionedPayload is published when a season rollover completes and
// the next season becomes active.
type SeasonTransitionedPayload struct {
	TransitionID string    `json:"transition_id"`
	FromSeason   int64     `json:"from_season"`
	ToSeason     int64     `json:"to_season"`
	CompletedAt  time.Time `json:"completed_at"`
}

// TransitionPhaseFailedPayload is published when a rollover phase fails
// fatally and will be retried by the next trigger tick.
type TransitionPhaseFailedPayload struct {
	TransitionID string    `json:"transition_id"`
	FromSeason   int64     `json:"from_season"`
	ToSeason     int64     `json:"to_season"`
	Phase        string    `json:"phase"`
	Message      string    `json:"message"`
	FailedAt     time.Time `json:"failed_at"`
}
