package seasonhandlers

import (
	"context"
	"time"

	leaderboardservice "github.com/Permavault-Club/season-engine/app/modules/leaderboard/application"
	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	seasonqueue "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/queue"
)

type FakeSeasonService struct {
	State       seasondomain.SeasonState
	Comparison  seasonservice.StateComparison
	SeasonView  seasonservice.SeasonView
	SeasonErr   error
	Transitions []seasonservice.TransitionView
	ListErr     error
	ListLimit   int
	ClockInfo   seasonservice.ClockInfo
	ClockArg    time.Time
	Trigger     seasonservice.TriggerResult
	TriggerErr  error
}

func (f *FakeSeasonService) CurrentState(ctx context.Context) seasondomain.SeasonState {
	return f.State
}

func (f *FakeSeasonService) CompareState(ctx context.Context) seasonservice.StateComparison {
	return f.Comparison
}

func (f *FakeSeasonService) GetSeason(ctx context.Context, number int64) (seasonservice.SeasonView, error) {
	return f.SeasonView, f.SeasonErr
}

func (f *FakeSeasonService) ListTransitions(ctx context.Context, limit int) ([]seasonservice.TransitionView, error) {
	f.ListLimit = limit
	return f.Transitions, f.ListErr
}

func (f *FakeSeasonService) ClockAt(at time.Time) seasonservice.ClockInfo {
	f.ClockArg = at
	return f.ClockInfo
}

func (f *FakeSeasonService) TriggerTransition(ctx context.Context) (seasonservice.TriggerResult, error) {
	return f.Trigger, f.TriggerErr
}

var _ seasonservice.Service = (*FakeSeasonService)(nil)

type FakeLeaderboardService struct {
	Entries   []leaderboardevents.RankedEntry
	RankErr   error
	Chart     []byte
	ChartErr  error
	ChartTop  int
	Workbook  []byte
	ExportErr error
}

func (f *FakeLeaderboardService) ReconcileVote(ctx context.Context, payload leaderboardevents.VoteRecordedPayload) (leaderboardservice.ReconcileResult, error) {
	return leaderboardservice.ReconcileResult{}, nil
}

func (f *FakeLeaderboardService) TallyCycle(ctx context.Context, cycleID int64) (leaderboardservice.TallyResult, error) {
	return leaderboardservice.TallyResult{}, nil
}

func (f *FakeLeaderboardService) RebuildRanking(ctx context.Context, cycleID int64) (leaderboardservice.ReconcileResult, error) {
	return leaderboardservice.ReconcileResult{}, nil
}

func (f *FakeLeaderboardService) GetRanking(ctx context.Context, cycleID int64) ([]leaderboardevents.RankedEntry, error) {
	return f.Entries, f.RankErr
}

func (f *FakeLeaderboardService) ExportRanking(ctx context.Context, cycleID int64) ([]byte, error) {
	return f.Workbook, f.ExportErr
}

func (f *FakeLeaderboardService) RenderChart(ctx context.Context, cycleID int64, top int) ([]byte, error) {
	f.ChartTop = top
	return f.Chart, f.ChartErr
}

var _ leaderboardservice.Service = (*FakeLeaderboardService)(nil)

type FakeTickLister struct {
	Jobs  []seasonqueue.JobInfo
	Err   error
	Limit int
}

func (f *FakeTickLister) RecentTicks(ctx context.Context, limit int) ([]seasonqueue.JobInfo, error) {
	f.Limit = limit
	return f.Jobs, f.Err
}
