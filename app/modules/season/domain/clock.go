// Package seasondomain contains the pure season arithmetic: numbering,
// boundaries, lifecycle phases, and validation. No I/O.
package seasondomain

import (
	"fmt"
	"time"
)

// SeasonLength is the fixed length of every season.
const SeasonLength = 7 * 24 * time.Hour

// Clock computes season numbers and boundaries from a fixed epoch.
// The epoch is the instant season 1 begins, a Monday 00:00:00 UTC.
type Clock struct {
	epoch time.Time
}

// NewClock creates a Clock anchored at the given epoch.
func NewClock(epoch time.Time) Clock {
	return Clock{epoch: epoch.UTC()}
}

// Epoch returns the configured season origin.
func (c Clock) Epoch() time.Time {
	return c.epoch
}

// SeasonNumber returns the 1-indexed season containing t. Seasons never go
// below 1, even for timestamps before the epoch.
func (c Clock) SeasonNumber(t time.Time) int64 {
	elapsed := t.UTC().Sub(c.epoch)
	if elapsed < 0 {
		return 1
	}
	return int64(elapsed/SeasonLength) + 1
}

// Boundaries holds a season's inclusive start and end instants.
type Boundaries struct {
	Start time.Time
	End   time.Time
}

// Boundaries returns season n's start (Monday 00:00:00.000 UTC) and end
// (Sunday 23:59:59.999 UTC). Season numbers below 1 clamp to 1. Consecutive
// seasons are contiguous: end(n) + 1ms == start(n+1).
func (c Clock) Boundaries(n int64) Boundaries {
	if n < 1 {
		n = 1
	}
	raw := c.epoch.Add(time.Duration(n-1) * SeasonLength)
	start := NormalizeToWeekStart(raw)
	return Boundaries{
		Start: start,
		End:   start.Add(SeasonLength - time.Millisecond),
	}
}

// NormalizeToWeekStart aligns t to a Monday 00:00:00 UTC week start. A
// timestamp already on a Monday is truncated to midnight; anything else
// advances to the next Monday. The operation is idempotent.
func NormalizeToWeekStart(t time.Time) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if t.Weekday() == time.Monday {
		return midnight
	}
	days := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	return midnight.AddDate(0, 0, days)
}

// ISOWeek returns the ISO-8601 year and week for t, following the Thursday
// rule: a week belongs to the year that contains its Thursday.
func ISOWeek(t time.Time) (year int, week int) {
	return t.UTC().ISOWeek()
}

// ISOWeekString formats the ISO week of t as "YYYY-Www", e.g. "2024-W02".
func ISOWeekString(t time.Time) string {
	year, week := ISOWeek(t)
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ShouldTransition reports whether the season containing t has entered its
// final hour or already ended, meaning rollover work is due. A strict
// after-the-end test would never hold inside the Sunday 23:00 window, so
// the final hour counts as ending.
func (c Clock) ShouldTransition(t time.Time) bool {
	end := c.Boundaries(c.SeasonNumber(t)).End
	return t.UTC().Add(time.Hour).After(end)
}

// IsTransitionWindow reports whether t falls in the single hour rollover work
// may run: Sunday 23:00-23:59 UTC.
func IsTransitionWindow(t time.Time) bool {
	t = t.UTC()
	return t.Weekday() == time.Sunday && t.Hour() == 23
}
