package seasondomain

// TransitionStatus is the lifecycle status of one rollover attempt.
type TransitionStatus string

const (
	TransitionInProgress TransitionStatus = "in_progress"
	TransitionCompleted  TransitionStatus = "completed"
	TransitionFailed     TransitionStatus = "failed"
)

// HasPhase reports whether p is already recorded in phases.
func HasPhase(phases []TransitionPhase, p TransitionPhase) bool {
	for _, have := range phases {
		if have == p {
			return true
		}
	}
	return false
}

// AppendPhase records p in phases exactly once, preserving completion order.
// Re-appending a recorded phase is a no-op, so duplicate triggers inside one
// sub-window cannot double-count.
func AppendPhase(phases []TransitionPhase, p TransitionPhase) []TransitionPhase {
	if HasPhase(phases, p) {
		return phases
	}
	return append(phases, p)
}

// AllPhasesComplete reports whether every rollover phase is recorded.
func AllPhasesComplete(phases []TransitionPhase) bool {
	for _, p := range TransitionPhases {
		if !HasPhase(phases, p) {
			return false
		}
	}
	return true
}
