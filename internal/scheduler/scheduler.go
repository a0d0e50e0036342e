package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler is the authoritative record of pending jobs and GPU assignments.
// One instance per process; handlers receive it by injection so tests can
// build isolated instances.
type Scheduler struct {
	mu sync.Mutex

	deviceCount int

	// Pending queue: insertion order plus keyed entries. Resubmission with an
	// existing id replaces the entry but keeps its position.
	order   []string
	pending map[string]JobRequest

	active      map[string]*ActiveJob
	assignments map[int]string // device index -> job id

	log zerolog.Logger
}

// Config holds scheduler construction parameters.
type Config struct {
	// DeviceCount is the size of the GPU pool. Values below 1 are clamped to 1.
	DeviceCount int
	Logger      zerolog.Logger
}

// New constructs a scheduler over a pool of deviceCount GPUs.
func New(deviceCount int) *Scheduler {
	return NewWithConfig(Config{DeviceCount: deviceCount, Logger: zerolog.Nop()})
}

// NewWithConfig constructs a scheduler, applying defaults for zero values.
func NewWithConfig(cfg Config) *Scheduler {
	if cfg.DeviceCount < 1 {
		cfg.DeviceCount = 1
	}
	return &Scheduler{
		deviceCount: cfg.DeviceCount,
		pending:     make(map[string]JobRequest),
		active:      make(map[string]*ActiveJob),
		assignments: make(map[int]string),
		log:         cfg.Logger,
	}
}

// DeviceCount returns the configured pool size.
func (s *Scheduler) DeviceCount() int { return s.deviceCount }

// Submit adds a job to the pending queue. Idempotent per job id: resubmitting
// replaces the stored request without changing queue position. GPU state is
// untouched.
func (s *Scheduler) Submit(jobID, task, promptPreview string, gpuCount int) error {
	if strings.TrimSpace(jobID) == "" {
		return invalidJobError{msg: "empty job id"}
	}
	if gpuCount < 1 {
		return invalidJobError{msg: fmt.Sprintf("gpu count must be positive, got %d", gpuCount)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[jobID]; !ok {
		s.order = append(s.order, jobID)
	}
	s.pending[jobID] = JobRequest{JobID: jobID, Task: task, PromptPreview: promptPreview, GPUCount: gpuCount}
	queueDepth.Set(float64(len(s.order)))
	s.log.Debug().Str("job_id", jobID).Str("task", task).Int("gpu_count", gpuCount).Msg("job submitted")
	return nil
}

// Position returns the 0-based queue position of jobID, or PositionNotFound.
func (s *Scheduler) Position(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.order {
		if id == jobID {
			return i
		}
	}
	return PositionNotFound
}

// QueueLength returns the number of pending jobs.
func (s *Scheduler) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// ActiveJobs returns a snapshot of all jobs currently holding GPUs, ordered
// by admission time.
func (s *Scheduler) ActiveJobs() []ActiveJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActiveJob, 0, len(s.active))
	for _, j := range s.active {
		cp := *j
		cp.GPUIDs = append([]int(nil), j.GPUIDs...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out
}

// TryAcquire attempts to admit jobID. With no gpuIDs the whole pool is one
// slot: admission requires zero active jobs and jobID at the head of the
// queue, and the job is assigned device 0. With explicit gpuIDs the job is
// admitted as soon as every requested device is unassigned, regardless of
// queue order.
//
// On success the job moves atomically from pending to active and the assigned
// device list is returned. Returning ok=false is the normal "not your turn
// yet" outcome and changes no state.
func (s *Scheduler) TryAcquire(jobID string, gpuIDs []int) ([]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, already := s.active[jobID]; already {
		return nil, false
	}

	var devices []int
	mode := "single_slot"
	if len(gpuIDs) == 0 {
		// Whole pool as one slot; nominal device 0 regardless of pool size.
		if len(s.active) > 0 {
			return nil, false
		}
		if len(s.order) > 0 && s.order[0] != jobID {
			return nil, false
		}
		devices = []int{0}
	} else {
		mode = "multi_gpu"
		for _, id := range gpuIDs {
			if _, busy := s.assignments[id]; busy {
				return nil, false
			}
		}
		devices = append([]int(nil), gpuIDs...)
	}

	req, queued := s.pending[jobID]
	if !queued {
		req = JobRequest{JobID: jobID, Task: "unknown", GPUCount: len(devices)}
	}
	s.removeFromQueue(jobID)

	job := &ActiveJob{
		JobID:         jobID,
		GPUIDs:        devices,
		Task:          req.Task,
		PromptPreview: req.PromptPreview,
		StartedAt:     time.Now(),
	}
	s.active[jobID] = job
	for _, id := range devices {
		s.assignments[id] = jobID
	}

	queueDepth.Set(float64(len(s.order)))
	activeJobs.Set(float64(len(s.active)))
	gpusInUse.Set(float64(len(s.assignments)))
	admissionsTotal.WithLabelValues(mode).Inc()
	s.log.Info().Str("job_id", jobID).Ints("gpu_ids", devices).Str("mode", mode).Msg("job admitted")

	return append([]int(nil), devices...), true
}

// Release frees every device held by jobID. Safe to call unconditionally
// during cleanup: releasing a job that is not active (or was never admitted)
// is a no-op.
func (s *Scheduler) Release(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.active[jobID]
	if !ok {
		return
	}
	for _, id := range job.GPUIDs {
		if s.assignments[id] == jobID {
			delete(s.assignments, id)
		}
	}
	delete(s.active, jobID)
	activeJobs.Set(float64(len(s.active)))
	gpusInUse.Set(float64(len(s.assignments)))
	s.log.Info().Str("job_id", jobID).Ints("gpu_ids", job.GPUIDs).Dur("held", time.Since(job.StartedAt)).Msg("gpus released")
}

// Cancel removes jobID from the pending queue. It has no effect on a job that
// is already active; cancelling a running job is the process runner's
// responsibility.
func (s *Scheduler) Cancel(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[jobID]; !ok {
		return
	}
	s.removeFromQueue(jobID)
	queueDepth.Set(float64(len(s.order)))
	cancellationsTotal.Inc()
	s.log.Info().Str("job_id", jobID).Msg("queued job cancelled")
}

// StatusMessage returns a one-line summary of scheduler load for display,
// e.g. "2 jobs running on 4 GPUs (t2v-A14B, i2v-A14B), 1 in queue".
// Empty when nothing is running or queued.
func (s *Scheduler) StatusMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.active) == 0 && len(s.order) == 0 {
		return ""
	}

	var parts []string
	if len(s.active) > 0 {
		jobs := make([]*ActiveJob, 0, len(s.active))
		for _, j := range s.active {
			jobs = append(jobs, j)
		}
		sort.Slice(jobs, func(i, k int) bool { return jobs[i].StartedAt.Before(jobs[k].StartedAt) })
		gpus := len(s.assignments)
		tasks := make([]string, 0, len(jobs))
		for _, j := range jobs {
			tasks = append(tasks, j.Task)
		}
		parts = append(parts, fmt.Sprintf("%d %s running on %d %s (%s)",
			len(jobs), plural(len(jobs), "job", "jobs"),
			gpus, plural(gpus, "GPU", "GPUs"),
			strings.Join(tasks, ", ")))
	}
	if n := len(s.order); n > 0 {
		parts = append(parts, fmt.Sprintf("%d in queue", n))
	}
	return strings.Join(parts, ", ")
}

// removeFromQueue deletes jobID from both the order slice and the keyed
// entries. Caller must hold s.mu.
func (s *Scheduler) removeFromQueue(jobID string) {
	delete(s.pending, jobID)
	for i, id := range s.order {
		if id == jobID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
