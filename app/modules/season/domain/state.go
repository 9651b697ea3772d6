package seasondomain

import "time"

// SeasonStatus is a season's lifecycle status.
type SeasonStatus string

const (
	StatusPreparing  SeasonStatus = "preparing"
	StatusActive     SeasonStatus = "active"
	StatusFinalizing SeasonStatus = "finalizing"
	StatusCompleted  SeasonStatus = "completed"
	StatusArchived   SeasonStatus = "archived"
)

// SeasonInfo is the immutable description of one season.
type SeasonInfo struct {
	Number int64        `json:"number"`
	Start  time.Time    `json:"start"`
	End    time.Time    `json:"end"`
	Status SeasonStatus `json:"status"`
	Phase  Phase        `json:"phase,omitempty"`
}

// StatusAt derives a season's status from the wall clock: preparing before
// start, completed after end, active in between.
func StatusAt(now, start, end time.Time) SeasonStatus {
	switch {
	case now.Before(start):
		return StatusPreparing
	case now.After(end):
		return StatusCompleted
	default:
		return StatusActive
	}
}

// SystemInfo describes the resolver's bookkeeping at resolution time.
type SystemInfo struct {
	LastChecked    time.Time `json:"lastChecked"`
	AutoTransition bool      `json:"autoTransition"`
	Maintenance    bool      `json:"maintenance"`
}

// SyncStatus reports which sources of truth the resolved state agrees with.
type SyncStatus struct {
	ChainSynced    bool `json:"chainSynced"`
	StorageSynced  bool `json:"storageSynced"`
	DatabaseSynced bool `json:"databaseSynced"`
}

// SeasonState is the canonical resolved view of the season timeline.
type SeasonState struct {
	Current  SeasonInfo `json:"current"`
	Previous SeasonInfo `json:"previous"`
	Next     SeasonInfo `json:"next"`
	System   SystemInfo `json:"system"`
	Sync     SyncStatus `json:"sync"`
}

// CalculatedSeasonInfo builds the SeasonInfo for season n as derived purely
// from the clock, with status evaluated at now. Phase is set only on the
// season that contains now.
func (c Clock) CalculatedSeasonInfo(n int64, now time.Time) SeasonInfo {
	now = now.UTC()
	b := c.Boundaries(n)
	info := SeasonInfo{
		Number: n,
		Start:  b.Start,
		End:    b.End,
		Status: StatusAt(now, b.Start, b.End),
	}
	if n == c.SeasonNumber(now) {
		info.Phase = c.PhaseAt(now)
	}
	return info
}

// CalculatedState builds the fully clock-derived SeasonState at now. This is
// the availability fallback when no authoritative source is reachable.
func (c Clock) CalculatedState(now time.Time) SeasonState {
	now = now.UTC()
	n := c.SeasonNumber(now)

	state := SeasonState{
		Current: c.CalculatedSeasonInfo(n, now),
		Next:    c.CalculatedSeasonInfo(n+1, now),
		System: SystemInfo{
			LastChecked:    now,
			AutoTransition: true,
		},
	}
	if n > 1 {
		state.Previous = c.CalculatedSeasonInfo(n-1, now)
	}
	return state
}
