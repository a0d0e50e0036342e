// Package scheduler provides process-wide job admission over a fixed pool of
// GPU devices. It is structured into small files by concern:
//
//   - types.go: JobRequest, ActiveJob, WaitStatus.
//   - scheduler.go: Scheduler state and the atomic queue/allocation operations
//     (Submit, Position, TryAcquire, Release, Cancel, ActiveJobs).
//   - coordinator.go: Coordinator, the blocking wait-your-turn loop with
//     cooperative cancellation and queue-position reporting.
//   - metrics.go: Prometheus gauges/counters for queue depth and GPU usage.
//   - errors.go: error types and helpers (IsInvalidJob).
//
// Two admission modes exist. Without explicit device ids the whole pool is one
// slot: a job is admitted only when nothing is active and it is the head of
// the FIFO queue. With explicit device ids a job is admitted as soon as every
// requested device is free, regardless of queue order, so a small job can run
// past a large one still waiting on busy devices.
//
// All mutable state is guarded by a single mutex; no operation blocks while
// holding it. Failed acquisition is an expected outcome, not an error.
package scheduler
