package scheduler

import "time"

// JobRequest is a pending job waiting for GPU admission. Immutable once
// submitted; resubmitting the same job id replaces the entry in place.
type JobRequest struct {
	JobID         string
	Task          string
	PromptPreview string
	GPUCount      int
}

// ActiveJob is a job currently holding GPUs. Created atomically with its
// device assignments at admission and destroyed on release.
type ActiveJob struct {
	JobID         string
	GPUIDs        []int
	Task          string
	PromptPreview string
	StartedAt     time.Time
}

// WaitStatus is a per-iteration snapshot handed to the wait callback so the
// caller can render queue feedback while blocked.
type WaitStatus struct {
	// 0-based position in the pending queue, or -1 if the job is not queued.
	Position int
	// Jobs currently holding GPUs.
	Active []ActiveJob
	// One-line human-readable summary, empty when the scheduler is idle.
	Summary string
}

// PositionNotFound is returned by Position for unknown job ids.
const PositionNotFound = -1
