package leaderboarddomain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ComputeSnapshotHash generates a deterministic hash of a cycle's entry set.
// The tally phase stores it with the vote snapshot to detect whether a cycle
// has already been tallied with the same data, and the archive manifest
// carries it so consumers can verify a ranking against its source snapshot.
func ComputeSnapshotHash(entries []Entry) string {
	// Sort for determinism
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EntityID < sorted[j].EntityID
	})

	var sb strings.Builder
	for _, e := range sorted {
		fmt.Fprintf(&sb, "%s:%s;", e.EntityID, e.votes())
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}
