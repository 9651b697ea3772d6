package seasonservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	"github.com/Permavault-Club/season-engine/internal/attr"
	"github.com/Permavault-Club/season-engine/internal/observability"
)

// Fallback reasons recorded when the authoritative source cannot be used.
const (
	fallbackLookupFailed = "lookup_failed"
	fallbackNotFound     = "not_found"
	fallbackInvalid      = "invalid_record"
)

// StateResolver produces the current SeasonState. Calculated time math is
// always available; when an authoritative source is configured its record
// overrides the calculated one, and any failure to read or validate it
// falls back to the calculated state without surfacing an error to callers.
type StateResolver struct {
	calculated    CalculatedSeasonSource
	authoritative AuthoritativeSeasonSource
	recorded      RecordedSeasonSource
	cache         *StateCache
	now           func() time.Time
	logger        *slog.Logger
	metrics       observability.SeasonMetrics
}

// NewStateResolver builds a resolver. authoritative and recorded may be nil,
// which disables the chain override and the database sync diagnostics
// respectively. A nil now falls back to time.Now.
func NewStateResolver(
	calculated CalculatedSeasonSource,
	authoritative AuthoritativeSeasonSource,
	recorded RecordedSeasonSource,
	cacheTTL time.Duration,
	now func() time.Time,
	logger *slog.Logger,
	metrics observability.SeasonMetrics,
) *StateResolver {
	if now == nil {
		now = time.Now
	}
	return &StateResolver{
		calculated:    calculated,
		authoritative: authoritative,
		recorded:      recorded,
		cache:         NewStateCache(cacheTTL, now),
		now:           now,
		logger:        logger,
		metrics:       metrics,
	}
}

// Resolve returns the season state, serving from cache while the entry is
// fresh. It never fails: the calculated state is the floor.
func (r *StateResolver) Resolve(ctx context.Context) seasondomain.SeasonState {
	if state, ok := r.cache.Get(); ok {
		r.metrics.RecordCacheHit(ctx)
		return state
	}
	r.metrics.RecordCacheMiss(ctx)

	state := r.resolveUncached(ctx)
	r.cache.Set(state)
	return state
}

// Invalidate drops the cached state so the next Resolve re-reads every
// source. Called after a transition completes.
func (r *StateResolver) Invalidate() {
	r.cache.Invalidate()
}

// Compare reads both sources live, bypassing the cache. It is a diagnostic:
// authoritative failures are reported in the result instead of triggering
// the silent fallback.
func (r *StateResolver) Compare(ctx context.Context) StateComparison {
	now := r.now().UTC()
	comparison := StateComparison{
		CalculatedSeason: r.calculated.SeasonNumber(now),
		CheckedAt:        now,
	}

	if r.authoritative == nil {
		comparison.AuthoritativeError = "authoritative source not configured"
		return comparison
	}

	number, err := r.authoritative.CurrentSeasonNumber(ctx)
	if err != nil {
		comparison.AuthoritativeError = err.Error()
		return comparison
	}

	comparison.AuthoritativeSeason = number
	comparison.InAgreement = number == comparison.CalculatedSeason
	return comparison
}

func (r *StateResolver) resolveUncached(ctx context.Context) seasondomain.SeasonState {
	now := r.now().UTC()
	state := r.calculated.CalculatedState(now)

	if r.authoritative != nil {
		if current, ok := r.fetchAuthoritative(ctx, now); ok {
			state = r.overrideWithAuthoritative(state, current, now)
		}
	}

	r.applySyncDiagnostics(ctx, &state)
	return state
}

// fetchAuthoritative reads and validates the chain's view of the current
// season. Any failure logs a warning, counts a fallback, and reports !ok so
// the caller keeps the calculated state.
func (r *StateResolver) fetchAuthoritative(ctx context.Context, now time.Time) (seasondomain.SeasonInfo, bool) {
	number, err := r.authoritative.CurrentSeasonNumber(ctx)
	if err != nil {
		r.fallback(ctx, fallbackLookupFailed, err)
		return seasondomain.SeasonInfo{}, false
	}
	if number <= 0 {
		r.fallback(ctx, fallbackInvalid, fmt.Errorf("registry reports season %d", number))
		return seasondomain.SeasonInfo{}, false
	}

	record, err := r.authoritative.SeasonInfo(ctx, number)
	if err != nil {
		r.fallback(ctx, fallbackLookupFailed, err)
		return seasondomain.SeasonInfo{}, false
	}
	if record == nil {
		r.fallback(ctx, fallbackNotFound, fmt.Errorf("registry has no record for season %d", number))
		return seasondomain.SeasonInfo{}, false
	}

	info := seasondomain.SeasonInfo{
		Number: record.Number,
		Start:  record.Start,
		End:    record.End,
		Status: seasondomain.StatusAt(now, record.Start, record.End),
		Phase:  r.calculated.PhaseAt(now),
	}
	if err := seasondomain.ValidateSeasonInfo(info); err != nil {
		r.fallback(ctx, fallbackInvalid, err)
		return seasondomain.SeasonInfo{}, false
	}
	return info, true
}

// overrideWithAuthoritative replaces the current season with the chain
// record and re-derives the neighbouring seasons from its number, so the
// previous/next boundaries stay consistent with the overridden current.
func (r *StateResolver) overrideWithAuthoritative(state seasondomain.SeasonState, current seasondomain.SeasonInfo, now time.Time) seasondomain.SeasonState {
	state.Current = current
	if current.Number > 1 {
		state.Previous = r.calculated.CalculatedSeasonInfo(current.Number-1, now)
	} else {
		state.Previous = seasondomain.SeasonInfo{}
	}
	state.Next = r.calculated.CalculatedSeasonInfo(current.Number+1, now)
	state.Sync.ChainSynced = true
	return state
}

// applySyncDiagnostics fills the database and storage sync flags from the
// recorded source. Failures here only leave the flags false; they never
// affect the resolved seasons.
func (r *StateResolver) applySyncDiagnostics(ctx context.Context, state *seasondomain.SeasonState) {
	if r.recorded == nil {
		return
	}

	number, folderPrepared, err := r.recorded.ActiveSeason(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Recorded season lookup failed, sync diagnostics unavailable",
			attr.Error(err),
			attr.ExtractCorrelationID(ctx),
		)
		return
	}

	state.Sync.DatabaseSynced = number == state.Current.Number
	state.Sync.StorageSynced = state.Sync.DatabaseSynced && folderPrepared
}

func (r *StateResolver) fallback(ctx context.Context, reason string, err error) {
	r.metrics.RecordAuthoritativeFallback(ctx, reason)
	r.logger.WarnContext(ctx, "Authoritative season source unavailable, serving calculated state",
		attr.String("fallback_reason", reason),
		attr.Error(err),
		attr.ExtractCorrelationID(ctx),
	)
}
