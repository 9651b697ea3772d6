package seasonservice

import (
	"context"
	"math/big"
	"time"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	"github.com/Permavault-Club/season-engine/internal/results"
)

// CalculatedSeasonSource is the pure clock-derived season source. It is
// always available and never fails; seasondomain.Clock satisfies it.
type CalculatedSeasonSource interface {
	SeasonNumber(t time.Time) int64
	Boundaries(n int64) seasondomain.Boundaries
	PhaseAt(t time.Time) seasondomain.Phase
	ShouldTransition(t time.Time) bool
	CalculatedSeasonInfo(n int64, now time.Time) seasondomain.SeasonInfo
	CalculatedState(now time.Time) seasondomain.SeasonState
}

// AuthoritativeSeason is one season record read from the on-chain registry.
type AuthoritativeSeason struct {
	Number     int64
	Start      time.Time
	End        time.Time
	Active     bool
	TotalVotes *big.Int
}

// AuthoritativeSeasonSource reads the on-chain season registry. It may fail,
// time out, or know nothing about a season; the resolver treats all of that
// as an availability problem and falls back to the calculated source.
type AuthoritativeSeasonSource interface {
	CurrentSeasonNumber(ctx context.Context) (int64, error)
	SeasonInfo(ctx context.Context, number int64) (*AuthoritativeSeason, error)
}

// RecordedSeasonSource reports what the database holds for the active
// season. It only feeds the resolved state's sync diagnostics; resolution
// itself never depends on it.
type RecordedSeasonSource interface {
	ActiveSeason(ctx context.Context) (number int64, folderPrepared bool, err error)
}

// PermanentStore is the storage collaborator seasons are archived into.
// PrepareFolder and FinalizeFolder are idempotent.
type PermanentStore interface {
	PrepareFolder(ctx context.Context, info seasondomain.SeasonInfo) (string, error)
	FinalizeFolder(ctx context.Context, seasonNumber int64) error
	UploadManifest(ctx context.Context, seasonNumber int64, manifest []byte) (string, error)
}

// StandingRow is one leaderboard row as archived in a season manifest.
type StandingRow struct {
	EntityID   string `json:"entityId"`
	TotalVotes string `json:"totalVotes"`
	Rank       int64  `json:"rank"`
}

// VoteTally snapshots and reads the ending season's standings. The
// leaderboard module satisfies it through an adapter.
type VoteTally interface {
	TallyVotes(ctx context.Context, seasonNumber int64) error
	Standings(ctx context.Context, seasonNumber int64) ([]StandingRow, error)
}

// PhaseLock is a best-effort advisory lock on one (from, to, phase) slot.
// It only reduces duplicate work; correctness never depends on holding it.
type PhaseLock interface {
	Acquire(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) (bool, error)
	Release(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase)
}

// StateComparison is the diagnostic view of calculated vs authoritative
// season numbers. It never changes resolution behavior.
type StateComparison struct {
	CalculatedSeason    int64     `json:"calculatedSeason"`
	AuthoritativeSeason int64     `json:"authoritativeSeason,omitempty"`
	AuthoritativeError  string    `json:"authoritativeError,omitempty"`
	InAgreement         bool      `json:"inAgreement"`
	CheckedAt           time.Time `json:"checkedAt"`
}

// SeasonView is the read-model row for one season.
type SeasonView struct {
	Number    int64                     `json:"number"`
	Year      int                       `json:"year"`
	Week      string                    `json:"week"`
	Start     time.Time                 `json:"start"`
	End       time.Time                 `json:"end"`
	Status    seasondomain.SeasonStatus `json:"status"`
	FolderRef string                    `json:"folderRef,omitempty"`
}

// TransitionView is the read-model row for one rollover record.
type TransitionView struct {
	ID              string    `json:"id"`
	FromSeason      int64     `json:"fromSeason"`
	ToSeason        int64     `json:"toSeason"`
	PhasesCompleted []string  `json:"phasesCompleted"`
	CurrentPhase    string    `json:"currentPhase,omitempty"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ClockInfo describes the season clock at a single instant.
type ClockInfo struct {
	At               time.Time          `json:"at"`
	SeasonNumber     int64              `json:"seasonNumber"`
	Start            time.Time          `json:"start"`
	End              time.Time          `json:"end"`
	Phase            seasondomain.Phase `json:"phase"`
	ISOWeek          string             `json:"isoWeek"`
	TransitionWindow bool               `json:"transitionWindow"`
	ShouldTransition bool               `json:"shouldTransition"`
	NextWindowOpens  time.Time          `json:"nextWindowOpens"`
}

// TransitionResult is the trigger response when the tick was a no-op or the
// phase for the current minute succeeded.
type TransitionResult struct {
	Phase         string    `json:"phase"`
	Description   string    `json:"description"`
	TransitionID  string    `json:"transitionId,omitempty"`
	CurrentSeason int64     `json:"currentSeason"`
	NextSeason    int64     `json:"nextSeason"`
	Timestamp     time.Time `json:"timestamp"`
}

// TransitionError is the trigger response when a phase failed fatally.
type TransitionError struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// TriggerResult is the outcome of one transition trigger tick.
type TriggerResult = results.OperationResult[TransitionResult, TransitionError]

// Service defines the interface for the SeasonService.
type Service interface {
	// CurrentState resolves the canonical season state. Resolution never
	// fails; an unreachable authoritative source degrades to the calculated
	// state.
	CurrentState(ctx context.Context) seasondomain.SeasonState

	// CompareState reports calculated vs authoritative season numbers for
	// operators. Diagnostic only.
	CompareState(ctx context.Context) StateComparison

	// GetSeason returns one season's view, synthesized from the clock when
	// no record is persisted yet.
	GetSeason(ctx context.Context, number int64) (SeasonView, error)

	// ListTransitions returns recent rollover records, newest first.
	ListTransitions(ctx context.Context, limit int) ([]TransitionView, error)

	// ClockAt describes the season clock at an arbitrary instant.
	ClockAt(at time.Time) ClockInfo

	// TriggerTransition runs one trigger tick: a no-op outside the rollover
	// window, otherwise exactly the phase owning the current minute.
	TriggerTransition(ctx context.Context) (TriggerResult, error)
}
