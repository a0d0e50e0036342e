package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

const defaultPollInterval = 1 * time.Second

// Coordinator turns the scheduler's non-blocking TryAcquire into a blocking
// wait-your-turn call. Each caller blocks on its own goroutine; suspension is
// a plain sleep between poll attempts, so cancellation latency is bounded by
// the poll interval.
type Coordinator struct {
	sched *Scheduler
	poll  time.Duration
	log   zerolog.Logger
}

// CoordinatorConfig holds coordinator construction parameters.
type CoordinatorConfig struct {
	// PollInterval between acquisition attempts; defaults to 1s.
	PollInterval time.Duration
	Logger       zerolog.Logger
}

// NewCoordinator constructs a coordinator with the default 1s poll interval.
func NewCoordinator(s *Scheduler) *Coordinator {
	return NewCoordinatorWithConfig(s, CoordinatorConfig{Logger: zerolog.Nop()})
}

// NewCoordinatorWithConfig constructs a coordinator, applying defaults for
// zero values.
func NewCoordinatorWithConfig(s *Scheduler, cfg CoordinatorConfig) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Coordinator{sched: s, poll: cfg.PollInterval, log: cfg.Logger}
}

// WaitForTurn blocks until jobID is admitted or cancelled is observed true.
// The job must already be submitted. gpuIDs selects explicit multi-GPU
// admission; nil uses the single-slot mode. onWait, if non-nil, is invoked
// once per waiting iteration with a queue snapshot for display.
//
// Returns the acquired device list and ok=true on admission. On cancellation
// the job is removed from the queue and ok=false is returned; no timeout is
// enforced here. Execution timeouts apply only after GPUs are held.
func (c *Coordinator) WaitForTurn(jobID string, cancelled func() bool, gpuIDs []int, onWait func(WaitStatus)) ([]int, bool) {
	// Fast path: an idle scheduler admits immediately, skipping queue UI.
	if devices, ok := c.sched.TryAcquire(jobID, gpuIDs); ok {
		return devices, true
	}

	for {
		if cancelled != nil && cancelled() {
			c.sched.Cancel(jobID)
			c.log.Info().Str("job_id", jobID).Msg("cancelled while waiting in queue")
			return nil, false
		}

		if devices, ok := c.sched.TryAcquire(jobID, gpuIDs); ok {
			return devices, true
		}

		if onWait != nil {
			onWait(WaitStatus{
				Position: c.sched.Position(jobID),
				Active:   c.sched.ActiveJobs(),
				Summary:  c.sched.StatusMessage(),
			})
		}

		time.Sleep(c.poll)
	}
}
