package leaderboardservice

import (
	"context"

	"github.com/uptrace/bun"

	leaderboarddb "github.com/Permavault-Club/season-engine/app/modules/leaderboard/infrastructure/repositories"
)

// ------------------------
// Fake Leaderboard Repo
// ------------------------

// FakeLeaderboardRepository provides a programmable stub for the
// leaderboarddb.Repository interface.
type FakeLeaderboardRepository struct {
	trace []string

	GetEntriesFunc        func(ctx context.Context, db bun.IDB, cycleID int64) ([]leaderboarddb.LeaderboardEntry, error)
	TopEntriesFunc        func(ctx context.Context, db bun.IDB, cycleID int64, limit int) ([]leaderboarddb.LeaderboardEntry, error)
	GetEntryFunc          func(ctx context.Context, db bun.IDB, cycleID int64, entityID string) (*leaderboarddb.LeaderboardEntry, error)
	BulkUpsertEntriesFunc func(ctx context.Context, db bun.IDB, entries []*leaderboarddb.LeaderboardEntry) error
	CountEntriesFunc      func(ctx context.Context, db bun.IDB, cycleID int64) (int, error)
	SaveVoteSnapshotFunc  func(ctx context.Context, db bun.IDB, snapshot *leaderboarddb.VoteSnapshot) error
	GetVoteSnapshotFunc   func(ctx context.Context, db bun.IDB, cycleID int64) (*leaderboarddb.VoteSnapshot, error)

	LastUpserted  []*leaderboarddb.LeaderboardEntry
	SavedSnapshot *leaderboarddb.VoteSnapshot
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeLeaderboardRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// NewFakeLeaderboardRepository initializes a new fake with an empty trace.
func NewFakeLeaderboardRepository() *FakeLeaderboardRepository {
	return &FakeLeaderboardRepository{
		trace: []string{},
	}
}

func (f *FakeLeaderboardRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeLeaderboardRepository) GetEntries(ctx context.Context, db bun.IDB, cycleID int64) ([]leaderboarddb.LeaderboardEntry, error) {
	f.record("GetEntries")
	if f.GetEntriesFunc != nil {
		return f.GetEntriesFunc(ctx, db, cycleID)
	}
	return []leaderboarddb.LeaderboardEntry{}, nil
}

func (f *FakeLeaderboardRepository) TopEntries(ctx context.Context, db bun.IDB, cycleID int64, limit int) ([]leaderboarddb.LeaderboardEntry, error) {
	f.record("TopEntries")
	if f.TopEntriesFunc != nil {
		return f.TopEntriesFunc(ctx, db, cycleID, limit)
	}
	return []leaderboarddb.LeaderboardEntry{}, nil
}

func (f *FakeLeaderboardRepository) GetEntry(ctx context.Context, db bun.IDB, cycleID int64, entityID string) (*leaderboarddb.LeaderboardEntry, error) {
	f.record("GetEntry")
	if f.GetEntryFunc != nil {
		return f.GetEntryFunc(ctx, db, cycleID, entityID)
	}
	return nil, nil
}

func (f *FakeLeaderboardRepository) BulkUpsertEntries(ctx context.Context, db bun.IDB, entries []*leaderboarddb.LeaderboardEntry) error {
	f.record("BulkUpsertEntries")
	f.LastUpserted = entries
	if f.BulkUpsertEntriesFunc != nil {
		return f.BulkUpsertEntriesFunc(ctx, db, entries)
	}
	return nil
}

func (f *FakeLeaderboardRepository) CountEntries(ctx context.Context, db bun.IDB, cycleID int64) (int, error) {
	f.record("CountEntries")
	if f.CountEntriesFunc != nil {
		return f.CountEntriesFunc(ctx, db, cycleID)
	}
	return 0, nil
}

func (f *FakeLeaderboardRepository) SaveVoteSnapshot(ctx context.Context, db bun.IDB, snapshot *leaderboarddb.VoteSnapshot) error {
	f.record("SaveVoteSnapshot")
	f.SavedSnapshot = snapshot
	if f.SaveVoteSnapshotFunc != nil {
		return f.SaveVoteSnapshotFunc(ctx, db, snapshot)
	}
	return nil
}

func (f *FakeLeaderboardRepository) GetVoteSnapshot(ctx context.Context, db bun.IDB, cycleID int64) (*leaderboarddb.VoteSnapshot, error) {
	f.record("GetVoteSnapshot")
	if f.GetVoteSnapshotFunc != nil {
		return f.GetVoteSnapshotFunc(ctx, db, cycleID)
	}
	return nil, nil
}

// Ensure the fake actually satisfies the interface
var _ leaderboarddb.Repository = (*FakeLeaderboardRepository)(nil)

// ------------------------
// Fake Season Provider
// ------------------------

// FakeSeasonProvider returns a fixed season number or error.
type FakeSeasonProvider struct {
	Season int64
	Err    error
	Calls  int
}

func (f *FakeSeasonProvider) CurrentSeason(ctx context.Context) (int64, error) {
	f.Calls++
	return f.Season, f.Err
}

var _ SeasonProvider = (*FakeSeasonProvider)(nil)
