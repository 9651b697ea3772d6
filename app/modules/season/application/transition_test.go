package seasonservice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	seasondb "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/repositories"
	"github.com/Permavault-Club/season-engine/internal/observability"
	"github.com/Permavault-Club/season-engine/internal/utils"
)

// windowTime returns a minute inside season 1's transition window
// (Sunday 2024-01-07, hour 23 UTC).
func windowTime(minute int) time.Time {
	return time.Date(2024, time.January, 7, 23, minute, 0, 0, time.UTC)
}

type transitionFixture struct {
	now      time.Time
	repo     *FakeSeasonRepository
	store    *FakePermanentStore
	tally    *FakeVoteTally
	lock     *FakePhaseLock
	notifier *FakeNotifier
	service  *SeasonService
}

func newTransitionFixture(start time.Time) *transitionFixture {
	clock := testClock()
	logger := testLogger()

	fix := &transitionFixture{
		now:      start,
		repo:     NewFakeSeasonRepository(),
		store:    NewFakePermanentStore(),
		tally:    &FakeVoteTally{},
		lock:     &FakePhaseLock{},
		notifier: &FakeNotifier{},
	}
	nowFn := func() time.Time { return fix.now }

	fix.service = &SeasonService{
		repo:     fix.repo,
		resolver: NewStateResolver(clock, nil, nil, time.Second, nowFn, logger, observability.NoopSeasonMetrics{}),
		clock:    clock,
		store:    fix.store,
		tally:    fix.tally,
		lock:     fix.lock,
		helpers:  utils.NewHelpers(logger),
		notifier: fix.notifier,
		now:      nowFn,
		logger:   logger,
		metrics:  observability.NoopTransitionMetrics{},
		tracer:   noop.NewTracerProvider().Tracer("test"),
	}
	return fix
}

func alertCodes(notifier *FakeNotifier) []string {
	codes := make([]string, 0, len(notifier.Alerts))
	for _, a := range notifier.Alerts {
		codes = append(codes, a.Code)
	}
	return codes
}

func TestTriggerTransition_OutsideWindow(t *testing.T) {
	// A Monday: one day past season 1's window.
	fix := newTransitionFixture(time.Date(2024, time.January, 8, 23, 5, 0, 0, time.UTC))

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || res.Success.Phase != "none" {
		t.Fatalf("expected a no-op outside the window, got %+v", res)
	}
	if len(fix.repo.Trace()) != 0 {
		t.Errorf("no-op must not touch the repository: %v", fix.repo.Trace())
	}
	if fix.lock.AcquireCalls != 0 {
		t.Error("no-op must not acquire the phase lock")
	}
}

func TestTriggerTransition_PreparePhase(t *testing.T) {
	fix := newTransitionFixture(windowTime(5))

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || res.Success.Phase != string(seasondomain.TransitionPhasePrepare) {
		t.Fatalf("expected prepare phase success, got %+v", res)
	}
	if res.Success.CurrentSeason != 1 || res.Success.NextSeason != 2 {
		t.Errorf("season pair = (%d, %d), want (1, 2)", res.Success.CurrentSeason, res.Success.NextSeason)
	}
	if res.Success.TransitionID == "" {
		t.Error("success must carry the transition record id")
	}

	next := fix.repo.StoredSeason(2)
	if next == nil {
		t.Fatal("prepare must create the next season row")
	}
	if next.Status != seasondomain.StatusPreparing || next.Week != "2024-W02" {
		t.Errorf("next season row = %+v, want preparing 2024-W02", next)
	}
	if next.FolderRef != "seasons/2/" {
		t.Errorf("folder ref = %q, want the prepared folder", next.FolderRef)
	}

	record := fix.repo.StoredTransition(1, 2)
	if record == nil {
		t.Fatal("prepare must create the transition record")
	}
	if len(record.PhasesCompleted) != 1 || record.PhasesCompleted[0] != seasondomain.TransitionPhasePrepare {
		t.Errorf("phases = %v, want [prepare_next_season]", record.PhasesCompleted)
	}
	if record.Status != seasondomain.TransitionInProgress {
		t.Errorf("status = %s, want in_progress", record.Status)
	}
	if fix.lock.AcquireCalls != 1 || fix.lock.ReleaseCalls != 1 {
		t.Errorf("lock acquire/release = %d/%d, want 1/1", fix.lock.AcquireCalls, fix.lock.ReleaseCalls)
	}
}

func TestTriggerTransition_DuplicateTriggerConverges(t *testing.T) {
	fix := newTransitionFixture(windowTime(5))
	ctx := context.Background()

	if _, err := fix.service.TriggerTransition(ctx); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	firstID := fix.repo.StoredTransition(1, 2).ID

	fix.now = windowTime(7)
	res, err := fix.service.TriggerTransition(ctx)
	if err != nil {
		t.Fatalf("second trigger: %v", err)
	}
	if res.Success == nil {
		t.Fatalf("duplicate trigger must succeed, got %+v", res)
	}

	record := fix.repo.StoredTransition(1, 2)
	if record.ID != firstID {
		t.Error("duplicate trigger must reuse the existing record")
	}
	if len(record.PhasesCompleted) != 1 {
		t.Errorf("phases = %v, duplicate run must not duplicate the entry", record.PhasesCompleted)
	}
	// The handler itself re-runs; only the record is deduplicated.
	if got := len(fix.store.Trace()); got != 2 {
		t.Errorf("PrepareFolder ran %d times, want 2 (handlers are safe to re-run)", got)
	}
}

func TestTriggerTransition_PrepareDoesNotRegressActivatedSeason(t *testing.T) {
	fix := newTransitionFixture(windowTime(5))
	fix.repo.SeedSeason(&seasondb.Season{Number: 2, Status: seasondomain.StatusActive})

	if _, err := fix.service.TriggerTransition(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fix.repo.StoredSeason(2).Status; got != seasondomain.StatusActive {
		t.Errorf("season 2 status = %s, a prepare re-run must not regress an active season", got)
	}
}

func TestTriggerTransition_TallyPhase(t *testing.T) {
	fix := newTransitionFixture(windowTime(20))

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || res.Success.Phase != string(seasondomain.TransitionPhaseTally) {
		t.Fatalf("minute 20 must select tally_votes, got %+v", res)
	}
	if fix.tally.TallyCalls != 1 {
		t.Errorf("tally calls = %d, want 1", fix.tally.TallyCalls)
	}
}

func TestTriggerTransition_TallyFailureIsSwallowed(t *testing.T) {
	fix := newTransitionFixture(windowTime(20))
	fix.tally.TallyVotesFunc = func(ctx context.Context, seasonNumber int64) error {
		return errors.New("snapshot write refused")
	}

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil {
		t.Fatalf("a tally failure must not fail the tick, got %+v", res)
	}

	record := fix.repo.StoredTransition(1, 2)
	if !seasondomain.HasPhase(record.PhasesCompleted, seasondomain.TransitionPhaseTally) {
		t.Error("tally phase must still advance after a swallowed failure")
	}
	if record.Status != seasondomain.TransitionInProgress || record.ErrorMessage != "" {
		t.Errorf("record = %+v, swallowed failure must not mark it failed", record)
	}

	codes := alertCodes(fix.notifier)
	if len(codes) != 1 || codes[0] != "season.transition.tally_failed" {
		t.Errorf("alerts = %v, want a single tally_failed warning", codes)
	}
}

func TestTriggerTransition_PrepareFailureIsFatalThenRetried(t *testing.T) {
	fix := newTransitionFixture(windowTime(5))
	ctx := context.Background()

	fix.store.PrepareFolderFunc = func(ctx context.Context, info seasondomain.SeasonInfo) (string, error) {
		return "", errors.New("bucket unavailable")
	}

	res, err := fix.service.TriggerTransition(ctx)
	if err != nil {
		t.Fatalf("fatal phase failures surface as failure payloads, not errors: %v", err)
	}
	if res.Failure == nil {
		t.Fatalf("expected a failure result, got %+v", res)
	}
	if res.Failure.Phase != string(seasondomain.TransitionPhasePrepare) {
		t.Errorf("failure phase = %s, want prepare_next_season", res.Failure.Phase)
	}
	if !strings.Contains(res.Failure.Message, "bucket unavailable") {
		t.Errorf("failure message %q should carry the cause", res.Failure.Message)
	}

	record := fix.repo.StoredTransition(1, 2)
	if record.Status != seasondomain.TransitionFailed || record.ErrorMessage == "" {
		t.Errorf("record = %+v, want failed with the error attached", record)
	}
	if codes := alertCodes(fix.notifier); len(codes) != 1 || codes[0] != "season.transition.phase_failed" {
		t.Errorf("alerts = %v, want a single phase_failed alert", codes)
	}

	// The next tick inside the window retries the same phase.
	fix.store.PrepareFolderFunc = nil
	fix.now = windowTime(7)

	res, err = fix.service.TriggerTransition(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Success == nil {
		t.Fatalf("retry must succeed, got %+v", res)
	}

	record = fix.repo.StoredTransition(1, 2)
	if record.Status != seasondomain.TransitionInProgress || record.ErrorMessage != "" {
		t.Errorf("record after retry = %+v, want in_progress with the error cleared", record)
	}
	if len(record.PhasesCompleted) != 1 || record.PhasesCompleted[0] != seasondomain.TransitionPhasePrepare {
		t.Errorf("phases after retry = %v, want [prepare_next_season]", record.PhasesCompleted)
	}
}

func TestTriggerTransition_FinalizePhaseArchivesAndSeals(t *testing.T) {
	fix := newTransitionFixture(windowTime(35))
	fix.repo.SeedSeason(&seasondb.Season{Number: 1, Status: seasondomain.StatusActive})
	fix.tally.StandingsFunc = func(ctx context.Context, seasonNumber int64) ([]StandingRow, error) {
		return []StandingRow{
			{EntityID: "vault-a", TotalVotes: "120", Rank: 1},
			{EntityID: "vault-b", TotalVotes: "80", Rank: 2},
		}, nil
	}

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || res.Success.Phase != string(seasondomain.TransitionPhaseFinalize) {
		t.Fatalf("minute 35 must select finalize_season, got %+v", res)
	}

	wantTrace := []string{"UploadManifest", "FinalizeFolder"}
	if got := fix.store.Trace(); len(got) != 2 || got[0] != wantTrace[0] || got[1] != wantTrace[1] {
		t.Errorf("store calls = %v, want %v", got, wantTrace)
	}

	var manifest seasonManifest
	if err := json.Unmarshal(fix.store.UploadedManifest, &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if manifest.Season != 1 || manifest.EntryCount != 2 || manifest.Standings[0].EntityID != "vault-a" {
		t.Errorf("manifest = %+v, want season 1 with two ordered standings", manifest)
	}

	if got := fix.repo.StoredSeason(1).Status; got != seasondomain.StatusCompleted {
		t.Errorf("season 1 status = %s, want completed", got)
	}
}

func TestTriggerTransition_ManifestFailureIsBestEffort(t *testing.T) {
	fix := newTransitionFixture(windowTime(35))
	fix.repo.SeedSeason(&seasondb.Season{Number: 1, Status: seasondomain.StatusActive})
	fix.store.UploadManifestFunc = func(ctx context.Context, seasonNumber int64, manifest []byte) (string, error) {
		return "", errors.New("upload refused")
	}

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil {
		t.Fatalf("a manifest failure must not fail the finalize phase, got %+v", res)
	}
	if got := fix.repo.StoredSeason(1).Status; got != seasondomain.StatusCompleted {
		t.Errorf("season 1 status = %s, want completed despite the lost manifest", got)
	}
	if codes := alertCodes(fix.notifier); len(codes) != 1 || codes[0] != "season.archive_failed" {
		t.Errorf("alerts = %v, want a single archive_failed warning", codes)
	}
}

func TestTriggerTransition_CompletePhaseActivatesNextSeason(t *testing.T) {
	fix := newTransitionFixture(windowTime(50))
	fix.repo.SeedSeason(&seasondb.Season{Number: 1, Status: seasondomain.StatusCompleted})
	fix.repo.SeedSeason(&seasondb.Season{Number: 2, Status: seasondomain.StatusPreparing})
	fix.repo.SeedTransition(&seasondb.SeasonTransition{
		ID:         "rollover-1",
		FromSeason: 1,
		ToSeason:   2,
		PhasesCompleted: []seasondomain.TransitionPhase{
			seasondomain.TransitionPhasePrepare,
			seasondomain.TransitionPhaseTally,
			seasondomain.TransitionPhaseFinalize,
		},
		CurrentPhase: seasondomain.TransitionPhaseFinalize,
		Status:       seasondomain.TransitionInProgress,
		StartedAt:    windowTime(5),
	})

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || res.Success.Phase != string(seasondomain.TransitionPhaseComplete) {
		t.Fatalf("minute 50 must select transition_complete, got %+v", res)
	}
	if res.Success.TransitionID != "rollover-1" {
		t.Errorf("transition id = %s, want the seeded record", res.Success.TransitionID)
	}

	if got := fix.repo.StoredSeason(2).Status; got != seasondomain.StatusActive {
		t.Errorf("season 2 status = %s, want active", got)
	}
	if got := fix.repo.StoredSeason(1).Status; got != seasondomain.StatusArchived {
		t.Errorf("season 1 status = %s, want archived", got)
	}

	record := fix.repo.StoredTransition(1, 2)
	if record.Status != seasondomain.TransitionCompleted {
		t.Errorf("record status = %s, want completed", record.Status)
	}
	if !seasondomain.AllPhasesComplete(record.PhasesCompleted) {
		t.Errorf("phases = %v, want all four recorded", record.PhasesCompleted)
	}
}

func TestTriggerTransition_CompleteWithoutPriorPhasesIsNotTerminal(t *testing.T) {
	// A scheduler outage whose first tick lands in the complete sub-window:
	// the record has no earlier phases, so it must stay open.
	fix := newTransitionFixture(windowTime(50))
	fix.repo.SeedSeason(&seasondb.Season{Number: 1, Status: seasondomain.StatusActive})
	fix.repo.SeedSeason(&seasondb.Season{Number: 2, Status: seasondomain.StatusPreparing})

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || res.Success.Phase != string(seasondomain.TransitionPhaseComplete) {
		t.Fatalf("minute 50 must select transition_complete, got %+v", res)
	}

	record := fix.repo.StoredTransition(1, 2)
	if record.Status != seasondomain.TransitionInProgress {
		t.Errorf("status = %s, a record missing prepare/tally/finalize must not be terminal", record.Status)
	}
	if len(record.PhasesCompleted) != 1 || record.PhasesCompleted[0] != seasondomain.TransitionPhaseComplete {
		t.Errorf("phases = %v, want only transition_complete recorded", record.PhasesCompleted)
	}

	// A later tick must still run against the open record instead of hitting
	// the already-completed no-op.
	fix.now = windowTime(55)
	res, err = fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if res.Success == nil || strings.Contains(res.Success.Description, "already completed") {
		t.Fatalf("an open record must keep accepting ticks, got %+v", res)
	}
}

func TestTriggerTransition_CompleteFailsWhenNextSeasonWasNeverPrepared(t *testing.T) {
	// No season rows at all: activating season 2 matches nothing, and that
	// must surface as a phase failure rather than a silent success.
	fix := newTransitionFixture(windowTime(50))

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Failure == nil {
		t.Fatalf("expected a failure result, got %+v", res)
	}
	if !strings.Contains(res.Failure.Message, "activate season 2") {
		t.Errorf("failure message %q should name the missing activation", res.Failure.Message)
	}

	record := fix.repo.StoredTransition(1, 2)
	if record.Status != seasondomain.TransitionFailed {
		t.Errorf("record status = %s, want failed", record.Status)
	}
	if seasondomain.HasPhase(record.PhasesCompleted, seasondomain.TransitionPhaseComplete) {
		t.Errorf("phases = %v, a failed complete must not be recorded", record.PhasesCompleted)
	}
	if codes := alertCodes(fix.notifier); len(codes) != 1 || codes[0] != "season.transition.phase_failed" {
		t.Errorf("alerts = %v, want a single phase_failed alert", codes)
	}
}

func TestTriggerTransition_CompletedRecordIsTerminal(t *testing.T) {
	fix := newTransitionFixture(windowTime(50))
	fix.repo.SeedTransition(&seasondb.SeasonTransition{
		ID:         "rollover-1",
		FromSeason: 1,
		ToSeason:   2,
		PhasesCompleted: []seasondomain.TransitionPhase{
			seasondomain.TransitionPhasePrepare,
			seasondomain.TransitionPhaseTally,
			seasondomain.TransitionPhaseFinalize,
			seasondomain.TransitionPhaseComplete,
		},
		CurrentPhase: seasondomain.TransitionPhaseComplete,
		Status:       seasondomain.TransitionCompleted,
		StartedAt:    windowTime(5),
	})

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || !strings.Contains(res.Success.Description, "already completed") {
		t.Fatalf("expected the already-completed no-op, got %+v", res)
	}
	if res.Success.TransitionID != "rollover-1" {
		t.Errorf("no-op should reference the completed record, got %q", res.Success.TransitionID)
	}

	for _, step := range fix.repo.Trace() {
		if step == "UpdateTransition" {
			t.Error("a terminal record must not be mutated")
		}
	}
	if len(fix.store.Trace()) != 0 || fix.tally.TallyCalls != 0 {
		t.Error("a terminal record must not trigger phase work")
	}
}

func TestTriggerTransition_LockHeldSkipsTick(t *testing.T) {
	fix := newTransitionFixture(windowTime(5))
	fix.lock.AcquireFunc = func(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) (bool, error) {
		return false, nil
	}

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || !strings.Contains(res.Success.Description, "already running") {
		t.Fatalf("expected the lock-held no-op, got %+v", res)
	}
	if len(fix.repo.Trace()) != 0 {
		t.Errorf("a skipped tick must not touch the repository: %v", fix.repo.Trace())
	}
	if fix.lock.ReleaseCalls != 0 {
		t.Error("a lock that was never acquired must not be released")
	}
}

func TestTriggerTransition_LockErrorProceedsWithoutLock(t *testing.T) {
	fix := newTransitionFixture(windowTime(5))
	fix.lock.AcquireFunc = func(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) (bool, error) {
		return false, errors.New("kv bucket gone")
	}

	res, err := fix.service.TriggerTransition(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success == nil || res.Success.Phase != string(seasondomain.TransitionPhasePrepare) {
		t.Fatalf("a lock error must not block the phase, got %+v", res)
	}
	if fix.lock.ReleaseCalls != 0 {
		t.Error("no release without a successful acquire")
	}
}

func TestTriggerTransition_RecordLoadErrorSurfaces(t *testing.T) {
	fix := newTransitionFixture(windowTime(5))
	fix.repo.GetTransitionFunc = func(ctx context.Context, db bun.IDB, fromSeason, toSeason int64) (*seasondb.SeasonTransition, error) {
		return nil, errors.New("db connection lost")
	}

	_, err := fix.service.TriggerTransition(context.Background())
	if err == nil || !strings.Contains(err.Error(), "db connection lost") {
		t.Fatalf("expected the infrastructure error to surface, got %v", err)
	}
}
