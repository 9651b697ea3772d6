// Package leaderboarddomain contains the pure ranking logic: merging vote
// updates and producing a total, gap-free ordering for a season cycle.
package leaderboarddomain

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

var (
	ErrEmptyEntityID  = errors.New("entity id must not be empty")
	ErrNegativeVotes  = errors.New("total votes must not be negative")
	ErrDuplicateEntry = errors.New("duplicate entity in entry set")
)

// Entry is one ranked row for a season cycle. TotalVotes derives from token
// amounts and therefore carries unbounded precision.
type Entry struct {
	EntityID   string
	TotalVotes *big.Int
	Rank       int64
}

// votes returns the entry's vote total, treating nil as zero.
func (e Entry) votes() *big.Int {
	if e.TotalVotes == nil {
		return new(big.Int)
	}
	return e.TotalVotes
}

// ValidateEntry rejects entries that must never reach the ranking: empty
// entity IDs and negative vote totals.
func ValidateEntry(e Entry) error {
	if e.EntityID == "" {
		return ErrEmptyEntityID
	}
	if e.TotalVotes != nil && e.TotalVotes.Sign() < 0 {
		return fmt.Errorf("%w: entity %s has %s", ErrNegativeVotes, e.EntityID, e.TotalVotes)
	}
	return nil
}

// MergeEntry folds an updated entry into the set: update-in-place by entity
// ID, append if new. The input slice is not modified.
func MergeEntry(entries []Entry, updated Entry) []Entry {
	merged := make([]Entry, len(entries))
	copy(merged, entries)

	for i := range merged {
		if merged[i].EntityID == updated.EntityID {
			merged[i].TotalVotes = updated.votes()
			return merged
		}
	}
	return append(merged, updated)
}

// AssignRanks produces the full ordering for a cycle: entries sorted by
// descending vote total, ties broken by ascending entity ID, ranks assigned
// densely 1..N. Existing Rank values are ignored, which makes this the repair
// operation for a corrupted ranking. The result is deterministic, so running
// it twice on the same input yields identical output.
func AssignRanks(entries []Entry) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		cmp := ranked[i].votes().Cmp(ranked[j].votes())
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[i].EntityID < ranked[j].EntityID
	})

	for i := range ranked {
		ranked[i].TotalVotes = ranked[i].votes()
		ranked[i].Rank = int64(i + 1)
	}
	return ranked
}

// Reconcile merges one updated entry and recomputes the full ranking.
func Reconcile(entries []Entry, updated Entry) ([]Entry, error) {
	if err := ValidateEntry(updated); err != nil {
		return nil, err
	}
	if err := checkDuplicates(entries); err != nil {
		return nil, err
	}
	return AssignRanks(MergeEntry(entries, updated)), nil
}

func checkDuplicates(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.EntityID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.EntityID)
		}
		seen[e.EntityID] = struct{}{}
	}
	return nil
}
