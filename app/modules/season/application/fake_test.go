package seasonservice

import (
	"context"
	"fmt"
	"sort"

	"github.com/uptrace/bun"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	seasondb "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/repositories"
	"github.com/Permavault-Club/season-engine/internal/alerts"
)

// ------------------------
// Fake Season Repo
// ------------------------

// FakeSeasonRepository is a programmable stub for seasondb.Repository backed
// by in-memory maps, so the orchestrator's get/create/update cycle behaves
// like the real table without a database.
type FakeSeasonRepository struct {
	trace []string

	seasons     map[int64]*seasondb.Season
	transitions map[[2]int64]*seasondb.SeasonTransition

	GetSeasonFunc                func(ctx context.Context, db bun.IDB, number int64) (*seasondb.Season, error)
	GetActiveSeasonFunc          func(ctx context.Context, db bun.IDB) (*seasondb.Season, error)
	UpsertSeasonFunc             func(ctx context.Context, db bun.IDB, season *seasondb.Season) error
	SetSeasonStatusFunc          func(ctx context.Context, db bun.IDB, number int64, status seasondomain.SeasonStatus) error
	SetSeasonFolderRefFunc       func(ctx context.Context, db bun.IDB, number int64, folderRef string) error
	ListSeasonsFunc              func(ctx context.Context, db bun.IDB, limit int) ([]seasondb.Season, error)
	GetTransitionFunc            func(ctx context.Context, db bun.IDB, fromSeason, toSeason int64) (*seasondb.SeasonTransition, error)
	InsertTransitionIfAbsentFunc func(ctx context.Context, db bun.IDB, transition *seasondb.SeasonTransition) error
	UpdateTransitionFunc         func(ctx context.Context, db bun.IDB, transition *seasondb.SeasonTransition) error
	ListTransitionsFunc          func(ctx context.Context, db bun.IDB, limit int) ([]seasondb.SeasonTransition, error)
}

// NewFakeSeasonRepository initializes a new fake with empty tables.
func NewFakeSeasonRepository() *FakeSeasonRepository {
	return &FakeSeasonRepository{
		trace:       []string{},
		seasons:     map[int64]*seasondb.Season{},
		transitions: map[[2]int64]*seasondb.SeasonTransition{},
	}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeSeasonRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeSeasonRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// SeedSeason stores a season row directly, bypassing the trace.
func (f *FakeSeasonRepository) SeedSeason(season *seasondb.Season) {
	c := *season
	f.seasons[season.Number] = &c
}

// SeedTransition stores a transition row directly, bypassing the trace.
func (f *FakeSeasonRepository) SeedTransition(transition *seasondb.SeasonTransition) {
	c := *transition
	f.transitions[[2]int64{transition.FromSeason, transition.ToSeason}] = &c
}

// StoredSeason returns the stored row for a season, or nil.
func (f *FakeSeasonRepository) StoredSeason(number int64) *seasondb.Season {
	return f.seasons[number]
}

// StoredTransition returns the stored row for a season pair, or nil.
func (f *FakeSeasonRepository) StoredTransition(fromSeason, toSeason int64) *seasondb.SeasonTransition {
	return f.transitions[[2]int64{fromSeason, toSeason}]
}

// --- Repository Interface Implementation ---

func (f *FakeSeasonRepository) GetSeason(ctx context.Context, db bun.IDB, number int64) (*seasondb.Season, error) {
	f.record("GetSeason")
	if f.GetSeasonFunc != nil {
		return f.GetSeasonFunc(ctx, db, number)
	}
	row, ok := f.seasons[number]
	if !ok {
		return nil, nil
	}
	c := *row
	return &c, nil
}

func (f *FakeSeasonRepository) GetActiveSeason(ctx context.Context, db bun.IDB) (*seasondb.Season, error) {
	f.record("GetActiveSeason")
	if f.GetActiveSeasonFunc != nil {
		return f.GetActiveSeasonFunc(ctx, db)
	}
	var active *seasondb.Season
	for _, row := range f.seasons {
		if row.Status != seasondomain.StatusActive {
			continue
		}
		if active == nil || row.Number > active.Number {
			active = row
		}
	}
	if active == nil {
		return nil, nil
	}
	c := *active
	return &c, nil
}

func (f *FakeSeasonRepository) UpsertSeason(ctx context.Context, db bun.IDB, season *seasondb.Season) error {
	f.record("UpsertSeason")
	if f.UpsertSeasonFunc != nil {
		return f.UpsertSeasonFunc(ctx, db, season)
	}
	if existing, ok := f.seasons[season.Number]; ok {
		// Conflict path leaves status alone, like the real upsert.
		existing.Year = season.Year
		existing.Week = season.Week
		existing.StartsAt = season.StartsAt
		existing.EndsAt = season.EndsAt
		return nil
	}
	c := *season
	f.seasons[season.Number] = &c
	return nil
}

func (f *FakeSeasonRepository) SetSeasonStatus(ctx context.Context, db bun.IDB, number int64, status seasondomain.SeasonStatus) error {
	f.record(fmt.Sprintf("SetSeasonStatus(%d,%s)", number, status))
	if f.SetSeasonStatusFunc != nil {
		return f.SetSeasonStatusFunc(ctx, db, number, status)
	}
	row, ok := f.seasons[number]
	if !ok {
		return fmt.Errorf("season %d: %w", number, seasondb.ErrNoRowsAffected)
	}
	row.Status = status
	return nil
}

func (f *FakeSeasonRepository) SetSeasonFolderRef(ctx context.Context, db bun.IDB, number int64, folderRef string) error {
	f.record("SetSeasonFolderRef")
	if f.SetSeasonFolderRefFunc != nil {
		return f.SetSeasonFolderRefFunc(ctx, db, number, folderRef)
	}
	row, ok := f.seasons[number]
	if !ok {
		return fmt.Errorf("season %d: %w", number, seasondb.ErrNoRowsAffected)
	}
	row.FolderRef = folderRef
	return nil
}

func (f *FakeSeasonRepository) ListSeasons(ctx context.Context, db bun.IDB, limit int) ([]seasondb.Season, error) {
	f.record("ListSeasons")
	if f.ListSeasonsFunc != nil {
		return f.ListSeasonsFunc(ctx, db, limit)
	}
	out := make([]seasondb.Season, 0, len(f.seasons))
	for _, row := range f.seasons {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeSeasonRepository) GetTransition(ctx context.Context, db bun.IDB, fromSeason, toSeason int64) (*seasondb.SeasonTransition, error) {
	f.record("GetTransition")
	if f.GetTransitionFunc != nil {
		return f.GetTransitionFunc(ctx, db, fromSeason, toSeason)
	}
	row, ok := f.transitions[[2]int64{fromSeason, toSeason}]
	if !ok {
		return nil, nil
	}
	c := *row
	return &c, nil
}

func (f *FakeSeasonRepository) InsertTransitionIfAbsent(ctx context.Context, db bun.IDB, transition *seasondb.SeasonTransition) error {
	f.record("InsertTransitionIfAbsent")
	if f.InsertTransitionIfAbsentFunc != nil {
		return f.InsertTransitionIfAbsentFunc(ctx, db, transition)
	}
	key := [2]int64{transition.FromSeason, transition.ToSeason}
	if _, ok := f.transitions[key]; ok {
		return nil
	}
	c := *transition
	f.transitions[key] = &c
	return nil
}

func (f *FakeSeasonRepository) UpdateTransition(ctx context.Context, db bun.IDB, transition *seasondb.SeasonTransition) error {
	f.record("UpdateTransition")
	if f.UpdateTransitionFunc != nil {
		return f.UpdateTransitionFunc(ctx, db, transition)
	}
	c := *transition
	f.transitions[[2]int64{transition.FromSeason, transition.ToSeason}] = &c
	return nil
}

func (f *FakeSeasonRepository) ListTransitions(ctx context.Context, db bun.IDB, limit int) ([]seasondb.SeasonTransition, error) {
	f.record("ListTransitions")
	if f.ListTransitionsFunc != nil {
		return f.ListTransitionsFunc(ctx, db, limit)
	}
	out := make([]seasondb.SeasonTransition, 0, len(f.transitions))
	for _, row := range f.transitions {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ensure the fake actually satisfies the interface
var _ seasondb.Repository = (*FakeSeasonRepository)(nil)

// ------------------------
// Fake Authoritative Source
// ------------------------

// FakeAuthoritativeSource is a programmable stub for the chain registry.
type FakeAuthoritativeSource struct {
	CurrentSeasonNumberFunc func(ctx context.Context) (int64, error)
	SeasonInfoFunc          func(ctx context.Context, number int64) (*AuthoritativeSeason, error)

	NumberCalls int
	InfoCalls   int
}

func (f *FakeAuthoritativeSource) CurrentSeasonNumber(ctx context.Context) (int64, error) {
	f.NumberCalls++
	if f.CurrentSeasonNumberFunc != nil {
		return f.CurrentSeasonNumberFunc(ctx)
	}
	return 0, nil
}

func (f *FakeAuthoritativeSource) SeasonInfo(ctx context.Context, number int64) (*AuthoritativeSeason, error) {
	f.InfoCalls++
	if f.SeasonInfoFunc != nil {
		return f.SeasonInfoFunc(ctx, number)
	}
	return nil, nil
}

var _ AuthoritativeSeasonSource = (*FakeAuthoritativeSource)(nil)

// ------------------------
// Fake Recorded Source
// ------------------------

// FakeRecordedSource returns a fixed database view for sync diagnostics.
type FakeRecordedSource struct {
	Number         int64
	FolderPrepared bool
	Err            error
}

func (f *FakeRecordedSource) ActiveSeason(ctx context.Context) (int64, bool, error) {
	return f.Number, f.FolderPrepared, f.Err
}

var _ RecordedSeasonSource = (*FakeRecordedSource)(nil)

// ------------------------
// Fake Permanent Store
// ------------------------

// FakePermanentStore is a programmable stub for the archival storage.
type FakePermanentStore struct {
	trace []string

	PrepareFolderFunc  func(ctx context.Context, info seasondomain.SeasonInfo) (string, error)
	FinalizeFolderFunc func(ctx context.Context, seasonNumber int64) error
	UploadManifestFunc func(ctx context.Context, seasonNumber int64, manifest []byte) (string, error)

	UploadedManifest []byte
}

// NewFakePermanentStore initializes a new fake with an empty trace.
func NewFakePermanentStore() *FakePermanentStore {
	return &FakePermanentStore{trace: []string{}}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakePermanentStore) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakePermanentStore) PrepareFolder(ctx context.Context, info seasondomain.SeasonInfo) (string, error) {
	f.trace = append(f.trace, "PrepareFolder")
	if f.PrepareFolderFunc != nil {
		return f.PrepareFolderFunc(ctx, info)
	}
	return fmt.Sprintf("seasons/%d/", info.Number), nil
}

func (f *FakePermanentStore) FinalizeFolder(ctx context.Context, seasonNumber int64) error {
	f.trace = append(f.trace, "FinalizeFolder")
	if f.FinalizeFolderFunc != nil {
		return f.FinalizeFolderFunc(ctx, seasonNumber)
	}
	return nil
}

func (f *FakePermanentStore) UploadManifest(ctx context.Context, seasonNumber int64, manifest []byte) (string, error) {
	f.trace = append(f.trace, "UploadManifest")
	f.UploadedManifest = manifest
	if f.UploadManifestFunc != nil {
		return f.UploadManifestFunc(ctx, seasonNumber, manifest)
	}
	return fmt.Sprintf("seasons/%d/manifest.json", seasonNumber), nil
}

var _ PermanentStore = (*FakePermanentStore)(nil)

// ------------------------
// Fake Vote Tally
// ------------------------

// FakeVoteTally is a programmable stub for the leaderboard collaborator.
type FakeVoteTally struct {
	TallyVotesFunc func(ctx context.Context, seasonNumber int64) error
	StandingsFunc  func(ctx context.Context, seasonNumber int64) ([]StandingRow, error)

	TallyCalls     int
	StandingsCalls int
}

func (f *FakeVoteTally) TallyVotes(ctx context.Context, seasonNumber int64) error {
	f.TallyCalls++
	if f.TallyVotesFunc != nil {
		return f.TallyVotesFunc(ctx, seasonNumber)
	}
	return nil
}

func (f *FakeVoteTally) Standings(ctx context.Context, seasonNumber int64) ([]StandingRow, error) {
	f.StandingsCalls++
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx, seasonNumber)
	}
	return []StandingRow{}, nil
}

var _ VoteTally = (*FakeVoteTally)(nil)

// ------------------------
// Fake Phase Lock
// ------------------------

// FakePhaseLock grants every acquire unless told otherwise.
type FakePhaseLock struct {
	AcquireFunc func(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) (bool, error)

	AcquireCalls int
	ReleaseCalls int
}

func (f *FakePhaseLock) Acquire(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) (bool, error) {
	f.AcquireCalls++
	if f.AcquireFunc != nil {
		return f.AcquireFunc(ctx, fromSeason, toSeason, phase)
	}
	return true, nil
}

func (f *FakePhaseLock) Release(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) {
	f.ReleaseCalls++
}

var _ PhaseLock = (*FakePhaseLock)(nil)

// ------------------------
// Fake Notifier
// ------------------------

// SentAlert captures one alert delivered to the fake notifier.
type SentAlert struct {
	Severity string
	Code     string
	Message  string
	Fields   map[string]string
}

// FakeNotifier records alerts instead of publishing them.
type FakeNotifier struct {
	Alerts []SentAlert
}

func (f *FakeNotifier) SendAlert(ctx context.Context, severity, code, msg string, fields map[string]string) {
	f.Alerts = append(f.Alerts, SentAlert{Severity: severity, Code: code, Message: msg, Fields: fields})
}

var _ alerts.Notifier = (*FakeNotifier)(nil)
