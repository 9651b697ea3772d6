package leaderboarddomain

// CycleContext holds the resolved season context for a vote processing
// operation.
type CycleContext struct {
	CycleID  int64
	IsActive bool
}

// ResolveCycleForVote determines which season cycle a vote update should be
// processed under.
//
// Rules:
//   - If the event names a cycle explicitly, use it (replays keep their
//     original cycle).
//   - Otherwise use the currently resolved season.
//   - If neither is known, return an empty context (the vote is skipped).
func ResolveCycleForVote(explicitCycle int64, currentSeason int64) CycleContext {
	if explicitCycle > 0 {
		return CycleContext{
			CycleID:  explicitCycle,
			IsActive: explicitCycle == currentSeason,
		}
	}

	if currentSeason > 0 {
		return CycleContext{
			CycleID:  currentSeason,
			IsActive: true,
		}
	}

	// No season context at all. The caller drops the vote and alerts.
	return CycleContext{}
}

// ShouldProcessVote reports whether a vote carries enough context to be
// reconciled into a cycle.
func ShouldProcessVote(cycle CycleContext) bool {
	return cycle.CycleID > 0
}
