package leaderboardhandlers

import (
	"context"

	leaderboardservice "github.com/Permavault-Club/season-engine/app/modules/leaderboard/application"
	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
)

// ------------------------
// Fake Leaderboard Service
// ------------------------

// FakeLeaderboardService provides a programmable stub for the
// leaderboardservice.Service interface. Use this when testing handlers that
// depend on the LeaderboardService.
type FakeLeaderboardService struct {
	trace []string

	ReconcileVoteFunc  func(ctx context.Context, payload leaderboardevents.VoteRecordedPayload) (leaderboardservice.ReconcileResult, error)
	TallyCycleFunc     func(ctx context.Context, cycleID int64) (leaderboardservice.TallyResult, error)
	RebuildRankingFunc func(ctx context.Context, cycleID int64) (leaderboardservice.ReconcileResult, error)
	GetRankingFunc     func(ctx context.Context, cycleID int64) ([]leaderboardevents.RankedEntry, error)
	ExportRankingFunc  func(ctx context.Context, cycleID int64) ([]byte, error)
	RenderChartFunc    func(ctx context.Context, cycleID int64, top int) ([]byte, error)
}

// NewFakeLeaderboardService initializes a new FakeLeaderboardService.
func NewFakeLeaderboardService() *FakeLeaderboardService {
	return &FakeLeaderboardService{
		trace: []string{},
	}
}

func (f *FakeLeaderboardService) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of service methods called.
func (f *FakeLeaderboardService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// --- Service Interface Implementation ---

func (f *FakeLeaderboardService) ReconcileVote(ctx context.Context, payload leaderboardevents.VoteRecordedPayload) (leaderboardservice.ReconcileResult, error) {
	f.record("ReconcileVote")
	if f.ReconcileVoteFunc != nil {
		return f.ReconcileVoteFunc(ctx, payload)
	}
	return leaderboardservice.ReconcileResult{}, nil
}

func (f *FakeLeaderboardService) TallyCycle(ctx context.Context, cycleID int64) (leaderboardservice.TallyResult, error) {
	f.record("TallyCycle")
	if f.TallyCycleFunc != nil {
		return f.TallyCycleFunc(ctx, cycleID)
	}
	return leaderboardservice.TallyResult{}, nil
}

func (f *FakeLeaderboardService) RebuildRanking(ctx context.Context, cycleID int64) (leaderboardservice.ReconcileResult, error) {
	f.record("RebuildRanking")
	if f.RebuildRankingFunc != nil {
		return f.RebuildRankingFunc(ctx, cycleID)
	}
	return leaderboardservice.ReconcileResult{}, nil
}

func (f *FakeLeaderboardService) GetRanking(ctx context.Context, cycleID int64) ([]leaderboardevents.RankedEntry, error) {
	f.record("GetRanking")
	if f.GetRankingFunc != nil {
		return f.GetRankingFunc(ctx, cycleID)
	}
	return nil, nil
}

func (f *FakeLeaderboardService) ExportRanking(ctx context.Context, cycleID int64) ([]byte, error) {
	f.record("ExportRanking")
	if f.ExportRankingFunc != nil {
		return f.ExportRankingFunc(ctx, cycleID)
	}
	return nil, nil
}

func (f *FakeLeaderboardService) RenderChart(ctx context.Context, cycleID int64, top int) ([]byte, error) {
	f.record("RenderChart")
	if f.RenderChartFunc != nil {
		return f.RenderChartFunc(ctx, cycleID, top)
	}
	return nil, nil
}

// Ensure the fake satisfies the Service interface
var _ leaderboardservice.Service = (*FakeLeaderboardService)(nil)
