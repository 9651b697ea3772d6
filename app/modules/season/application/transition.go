package seasonservice

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	seasonevents "github.com/Permavault-Club/season-engine/app/modules/season/domain/events"
	seasondb "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/repositories"
	"github.com/Permavault-Club/season-engine/internal/alerts"
	"github.com/Permavault-Club/season-engine/internal/attr"
	"github.com/Permavault-Club/season-engine/internal/results"
)

// TriggerTransition runs one orchestrator tick. Outside the transition
// window it is a side-effect-free status report; inside it, exactly the
// phase owning the current minute executes. Phase handlers are idempotent,
// so duplicate ticks within a sub-window converge on the same persisted
// state.
func (s *SeasonService) TriggerTransition(ctx context.Context) (TriggerResult, error) {
	now := s.now().UTC()
	state := s.resolver.Resolve(ctx)
	fromSeason := state.Current.Number
	toSeason := fromSeason + 1

	return withTelemetry(s, ctx, "TriggerTransition", fromSeason, func(ctx context.Context) (TriggerResult, error) {
		if !seasondomain.IsTransitionWindow(now) {
			return s.noop(ctx, "none", "Outside the transition window; no rollover work performed", "", fromSeason, toSeason, now), nil
		}
		if !s.clock.ShouldTransition(now) {
			return s.noop(ctx, "none", "Transition window is open but the current season is not ending", "", fromSeason, toSeason, now), nil
		}

		phase, ok := seasondomain.TransitionPhaseForMinute(now.Minute())
		if !ok {
			return s.noop(ctx, "idle", "No rollover phase owns this minute", "", fromSeason, toSeason, now), nil
		}

		release, proceed := s.acquirePhaseLock(ctx, fromSeason, toSeason, phase)
		if !proceed {
			return s.noop(ctx, string(phase), "Another trigger is already running this phase", "", fromSeason, toSeason, now), nil
		}
		if release != nil {
			defer release()
		}

		record, err := s.ensureTransitionRecord(ctx, fromSeason, toSeason, now)
		if err != nil {
			return TriggerResult{}, err
		}

		if record.Status == seasondomain.TransitionCompleted {
			return s.noop(ctx, string(phase), "Transition already completed for this season pair", record.ID, fromSeason, toSeason, now), nil
		}

		return s.executePhase(ctx, record, phase, now)
	})
}

// noop reports a tick that performed no rollover work.
func (s *SeasonService) noop(ctx context.Context, phase, description, transitionID string, currentSeason, nextSeason int64, now time.Time) TriggerResult {
	s.logger.InfoContext(ctx, "Transition trigger was a no-op",
		attr.Phase("phase", phase),
		attr.String("reason", description),
		attr.ExtractCorrelationID(ctx),
	)
	return results.SuccessResult[TransitionResult, TransitionError](TransitionResult{
		Phase:         phase,
		Description:   description,
		TransitionID:  transitionID,
		CurrentSeason: currentSeason,
		NextSeason:    nextSeason,
		Timestamp:     now,
	})
}

// acquirePhaseLock best-effort acquires the advisory lock for one phase
// slot. A held lock skips the tick; a lock error proceeds without the lock,
// since phase handlers are idempotent and correctness never depends on it.
func (s *SeasonService) acquirePhaseLock(ctx context.Context, fromSeason, toSeason int64, phase seasondomain.TransitionPhase) (release func(), proceed bool) {
	if s.lock == nil {
		return nil, true
	}

	acquired, err := s.lock.Acquire(ctx, fromSeason, toSeason, phase)
	if err != nil {
		s.logger.WarnContext(ctx, "Phase lock unavailable, proceeding without it",
			attr.Phase("phase", string(phase)),
			attr.Error(err),
		)
		return nil, true
	}
	if !acquired {
		return nil, false
	}
	return func() { s.lock.Release(ctx, fromSeason, toSeason, phase) }, true
}

// ensureTransitionRecord loads the record for the season pair, creating it
// on first use. The create is an insert-if-absent keyed by the pair, so
// racing triggers converge on one row.
func (s *SeasonService) ensureTransitionRecord(ctx context.Context, fromSeason, toSeason int64, now time.Time) (*seasondb.SeasonTransition, error) {
	record, err := s.repo.GetTransition(ctx, nil, fromSeason, toSeason)
	if err != nil {
		return nil, fmt.Errorf("load transition record: %w", err)
	}
	if record != nil {
		return record, nil
	}

	fresh := &seasondb.SeasonTransition{
		ID:         uuid.New().String(),
		FromSeason: fromSeason,
		ToSeason:   toSeason,
		Status:     seasondomain.TransitionInProgress,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertTransitionIfAbsent(ctx, nil, fresh); err != nil {
		return nil, fmt.Errorf("create transition record: %w", err)
	}

	record, err = s.repo.GetTransition(ctx, nil, fromSeason, toSeason)
	if err != nil {
		return nil, fmt.Errorf("reload transition record: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("transition record for %d->%d missing after create", fromSeason, toSeason)
	}
	return record, nil
}

// executePhase runs one phase handler and folds its outcome into the
// transition record. Handlers always run even when the phase is already in
// phasesCompleted: a duplicate tick must be safe, and AppendPhase keeps the
// record deduplicated.
func (s *SeasonService) executePhase(ctx context.Context, record *seasondb.SeasonTransition, phase seasondomain.TransitionPhase, now time.Time) (TriggerResult, error) {
	fromSeason, toSeason := record.FromSeason, record.ToSeason

	s.logger.InfoContext(ctx, "Executing transition phase",
		attr.TransitionID("transition_id", record.ID),
		attr.Phase("phase", string(phase)),
		attr.SeasonNumber("from_season", fromSeason),
		attr.SeasonNumber("to_season", toSeason),
		attr.ExtractCorrelationID(ctx),
	)

	outcome := "completed"
	if err := s.runPhase(ctx, phase, fromSeason, toSeason, now); err != nil {
		if phase != seasondomain.TransitionPhaseTally {
			s.metrics.RecordPhaseOutcome(ctx, string(phase), "failed")
			return s.failPhase(ctx, record, phase, err, now), nil
		}

		// A failed vote snapshot must not block season continuity: the
		// phase still advances and operators are alerted instead.
		outcome = "swallowed"
		s.logger.ErrorContext(ctx, "Vote tally failed, continuing rollover",
			attr.TransitionID("transition_id", record.ID),
			attr.SeasonNumber("from_season", fromSeason),
			attr.Error(err),
			attr.ExtractCorrelationID(ctx),
		)
		s.notifier.SendAlert(ctx, alerts.SeverityWarning, "season.transition.tally_failed", err.Error(), map[string]string{
			"transition_id": record.ID,
			"from_season":   strconv.FormatInt(fromSeason, 10),
		})
	}
	s.metrics.RecordPhaseOutcome(ctx, string(phase), outcome)

	record.PhasesCompleted = seasondomain.AppendPhase(record.PhasesCompleted, phase)
	record.CurrentPhase = phase
	record.Status = seasondomain.TransitionInProgress
	record.ErrorMessage = ""
	record.UpdatedAt = now
	// Terminal only once every phase is recorded: a window whose first tick
	// lands on transition_complete must stay open for the skipped phases.
	if phase == seasondomain.TransitionPhaseComplete && seasondomain.AllPhasesComplete(record.PhasesCompleted) {
		record.Status = seasondomain.TransitionCompleted
	}
	if err := s.repo.UpdateTransition(ctx, nil, record); err != nil {
		return TriggerResult{}, fmt.Errorf("update transition record: %w", err)
	}

	if record.Status == seasondomain.TransitionCompleted {
		s.metrics.RecordTransitionCompleted(ctx, fromSeason)
		s.publishTransitioned(ctx, record, now)
		s.resolver.Invalidate()
	}

	return results.SuccessResult[TransitionResult, TransitionError](TransitionResult{
		Phase:         string(phase),
		Description:   phase.Description(),
		TransitionID:  record.ID,
		CurrentSeason: fromSeason,
		NextSeason:    toSeason,
		Timestamp:     now,
	}), nil
}

// failPhase marks the record failed, alerts, and returns the failure
// payload. The record is not terminal: the next tick inside the window
// re-attempts the same phase.
func (s *SeasonService) failPhase(ctx context.Context, record *seasondb.SeasonTransition, phase seasondomain.TransitionPhase, phaseErr error, now time.Time) TriggerResult {
	s.logger.ErrorContext(ctx, "Transition phase failed",
		attr.TransitionID("transition_id", record.ID),
		attr.Phase("phase", string(phase)),
		attr.SeasonNumber("from_season", record.FromSeason),
		attr.Error(phaseErr),
		attr.ExtractCorrelationID(ctx),
	)

	record.CurrentPhase = phase
	record.Status = seasondomain.TransitionFailed
	record.ErrorMessage = phaseErr.Error()
	record.UpdatedAt = now
	if err := s.repo.UpdateTransition(ctx, nil, record); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist failed transition record",
			attr.TransitionID("transition_id", record.ID),
			attr.Error(err),
		)
	}

	s.notifier.SendAlert(ctx, alerts.SeverityCritical, "season.transition.phase_failed", phaseErr.Error(), map[string]string{
		"transition_id": record.ID,
		"phase":         string(phase),
		"from_season":   strconv.FormatInt(record.FromSeason, 10),
		"to_season":     strconv.FormatInt(record.ToSeason, 10),
	})
	s.publishPhaseFailed(ctx, record, phase, phaseErr, now)

	return results.FailureResult[TransitionResult](TransitionError{
		Phase:   string(phase),
		Message: phaseErr.Error(),
	})
}

// runPhase dispatches to the handler owning the phase.
func (s *SeasonService) runPhase(ctx context.Context, phase seasondomain.TransitionPhase, fromSeason, toSeason int64, now time.Time) error {
	switch phase {
	case seasondomain.TransitionPhasePrepare:
		return s.runPreparePhase(ctx, toSeason, now)
	case seasondomain.TransitionPhaseTally:
		return s.runTallyPhase(ctx, fromSeason)
	case seasondomain.TransitionPhaseFinalize:
		return s.runFinalizePhase(ctx, fromSeason)
	case seasondomain.TransitionPhaseComplete:
		return s.runCompletePhase(ctx, fromSeason, toSeason)
	default:
		return fmt.Errorf("unknown transition phase %q", phase)
	}
}

// runPreparePhase creates the next season's database row and permanent
// storage folder. The row upsert leaves status alone on conflict, so a
// re-run cannot regress an already activated season.
func (s *SeasonService) runPreparePhase(ctx context.Context, toSeason int64, now time.Time) error {
	boundaries := s.clock.Boundaries(toSeason)
	year, _ := seasondomain.ISOWeek(boundaries.Start)

	next := &seasondb.Season{
		Number:   toSeason,
		Year:     year,
		Week:     seasondomain.ISOWeekString(boundaries.Start),
		StartsAt: boundaries.Start,
		EndsAt:   boundaries.End,
		Status:   seasondomain.StatusPreparing,
	}
	if err := s.repo.UpsertSeason(ctx, nil, next); err != nil {
		return fmt.Errorf("upsert season %d: %w", toSeason, err)
	}

	folderRef, err := s.store.PrepareFolder(ctx, s.clock.CalculatedSeasonInfo(toSeason, now))
	if err != nil {
		return fmt.Errorf("prepare folder for season %d: %w", toSeason, err)
	}
	if err := s.repo.SetSeasonFolderRef(ctx, nil, toSeason, folderRef); err != nil {
		return fmt.Errorf("record folder ref for season %d: %w", toSeason, err)
	}
	return nil
}

// runTallyPhase snapshots the ending season's votes into the leaderboard.
// Its failures are swallowed by the caller.
func (s *SeasonService) runTallyPhase(ctx context.Context, fromSeason int64) error {
	if err := s.tally.TallyVotes(ctx, fromSeason); err != nil {
		return fmt.Errorf("tally votes for season %d: %w", fromSeason, err)
	}
	return nil
}

// runFinalizePhase archives the ending season's standings, seals its
// storage folder, and marks it completed. The manifest upload is
// best-effort; the folder seal and status write are not.
func (s *SeasonService) runFinalizePhase(ctx context.Context, fromSeason int64) error {
	s.archiveStandings(ctx, fromSeason)

	if err := s.store.FinalizeFolder(ctx, fromSeason); err != nil {
		return fmt.Errorf("finalize folder for season %d: %w", fromSeason, err)
	}
	if err := s.repo.SetSeasonStatus(ctx, nil, fromSeason, seasondomain.StatusCompleted); err != nil {
		return fmt.Errorf("mark season %d completed: %w", fromSeason, err)
	}
	return nil
}

// runCompletePhase flips the season pair atomically: the next season
// becomes active, the ending one archived.
func (s *SeasonService) runCompletePhase(ctx context.Context, fromSeason, toSeason int64) error {
	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if err := s.repo.SetSeasonStatus(ctx, db, toSeason, seasondomain.StatusActive); err != nil {
			return fmt.Errorf("activate season %d: %w", toSeason, err)
		}
		if err := s.repo.SetSeasonStatus(ctx, db, fromSeason, seasondomain.StatusArchived); err != nil {
			return fmt.Errorf("archive season %d: %w", fromSeason, err)
		}
		return nil
	})
}

// publishTransitioned announces a completed rollover. Best-effort.
func (s *SeasonService) publishTransitioned(ctx context.Context, record *seasondb.SeasonTransition, now time.Time) {
	if s.eventBus == nil {
		return
	}

	payload := seasonevents.SeasonTransitionedPayload{
		TransitionID: record.ID,
		FromSeason:   record.FromSeason,
		ToSeason:     record.ToSeason,
		CompletedAt:  now,
	}
	msg, err := s.helpers.CreateNewMessage(payload, seasonevents.SeasonTransitionedSubject)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build season transitioned event",
			attr.TransitionID("transition_id", record.ID),
			attr.Error(err),
		)
		return
	}
	if err := s.eventBus.Publish(seasonevents.SeasonTransitionedSubject, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish season transitioned event",
			attr.TransitionID("transition_id", record.ID),
			attr.Error(err),
		)
	}
}

// publishPhaseFailed announces a fatal phase failure. Best-effort.
func (s *SeasonService) publishPhaseFailed(ctx context.Context, record *seasondb.SeasonTransition, phase seasondomain.TransitionPhase, phaseErr error, now time.Time) {
	if s.eventBus == nil {
		return
	}

	payload := seasonevents.TransitionPhaseFailedPayload{
		TransitionID: record.ID,
		FromSeason:   record.FromSeason,
		ToSeason:     record.ToSeason,
		Phase:        string(phase),
		Message:      phaseErr.Error(),
		FailedAt:     now,
	}
	msg, err := s.helpers.CreateNewMessage(payload, seasonevents.TransitionPhaseFailedSubject)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build phase failed event",
			attr.TransitionID("transition_id", record.ID),
			attr.Error(err),
		)
		return
	}
	if err := s.eventBus.Publish(seasonevents.TransitionPhaseFailedSubject, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish phase failed event",
			attr.TransitionID("transition_id", record.ID),
			attr.Error(err),
		)
	}
}
