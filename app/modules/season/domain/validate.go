package seasondomain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Year bounds accepted for season records. Anything outside is a
// configuration error, not real data.
const (
	MinSeasonYear = 2020
	MaxSeasonYear = 2100
)

var (
	ErrNonMonotonicBoundaries = errors.New("season start must precede end")
	ErrYearOutOfRange         = errors.New("season year out of range")
	ErrBadWeekFormat          = errors.New("invalid ISO week format")
)

var isoWeekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// ValidateSeasonInfo rejects malformed season records before they are
// persisted or trusted: non-monotonic boundaries and out-of-range years.
func ValidateSeasonInfo(info SeasonInfo) error {
	if !info.Start.Before(info.End) {
		return fmt.Errorf("season %d: %w (start=%s end=%s)",
			info.Number, ErrNonMonotonicBoundaries, info.Start, info.End)
	}
	year := info.Start.UTC().Year()
	if year < MinSeasonYear || year > MaxSeasonYear {
		return fmt.Errorf("season %d: %w (%d)", info.Number, ErrYearOutOfRange, year)
	}
	return nil
}

// ValidateISOWeek rejects week identifiers that do not match "YYYY-Www" with
// a week number between 01 and 53.
func ValidateISOWeek(week string) error {
	m := isoWeekPattern.FindStringSubmatch(week)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrBadWeekFormat, week)
	}
	year, _ := strconv.Atoi(m[1])
	if year < MinSeasonYear || year > MaxSeasonYear {
		return fmt.Errorf("%w: %q", ErrYearOutOfRange, week)
	}
	num, _ := strconv.Atoi(m[2])
	if num < 1 || num > 53 {
		return fmt.Errorf("%w: week %02d outside 01-53", ErrBadWeekFormat, num)
	}
	return nil
}
