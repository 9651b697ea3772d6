package seasonqueue

// TransitionTickJob is the once-a-minute trigger for the season transition
// orchestrator. It carries no arguments; the service derives everything from
// the wall clock.
type TransitionTickJob struct{}

// Kind returns the job type identifier for River.
func (TransitionTickJob) Kind() string { return "season_transition_tick" }

// JobInfo describes one queued or finished tick job, for operators.
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	FinalizedAt string `json:"finalized_at,omitempty"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
