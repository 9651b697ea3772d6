package seasonqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	"github.com/Permavault-Club/season-engine/internal/attr"
)

// TransitionTrigger is the slice of the season service the tick worker
// drives.
type TransitionTrigger interface {
	TriggerTransition(ctx context.Context) (seasonservice.TriggerResult, error)
}

// TransitionTickWorker runs one transition trigger per tick. The service owns
// all the gating: outside the rollover window a tick is a cheap no-op.
type TransitionTickWorker struct {
	river.WorkerDefaults[TransitionTickJob]

	trigger TransitionTrigger
	logger  *slog.Logger
}

func NewTransitionTickWorker(logger *slog.Logger, trigger TransitionTrigger) *TransitionTickWorker {
	return &TransitionTickWorker{trigger: trigger, logger: logger}
}

// Work invokes the trigger. A failed phase comes back as a failure result
// that the service has already persisted and alerted on, and the next
// minute's tick retries it, so the job itself completes; only a transport
// error is returned to River.
func (w *TransitionTickWorker) Work(ctx context.Context, job *river.Job[TransitionTickJob]) error {
	result, err := w.trigger.TriggerTransition(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Transition tick failed",
			attr.Int64("job_id", job.ID),
			attr.Error(err),
		)
		return fmt.Errorf("transition tick: %w", err)
	}
	if result.IsFailure() {
		w.logger.WarnContext(ctx, "Transition tick hit a phase failure",
			attr.Int64("job_id", job.ID),
			attr.Phase("phase", result.Failure.Phase),
		)
	}
	return nil
}
