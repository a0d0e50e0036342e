// Package jobs glues the HTTP surface to the scheduler and process runner:
// one Generate call carries a job from submission through queue wait, engine
// execution, and unconditional GPU release.
package jobs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/gpu"
	"vidgend/internal/runner"
	"vidgend/internal/scheduler"
	"vidgend/pkg/types"
)

const promptPreviewLen = 50

// engineRunner is the slice of runner.Runner the orchestrator needs; tests
// substitute a fake engine.
type engineRunner interface {
	Run(runner.Invocation) runner.Result
}

// Config holds orchestrator construction parameters.
type Config struct {
	// EngineDir is the working directory for engine subprocesses.
	EngineDir string
	// GenerateScript is the engine entry point.
	GenerateScript string
	// Checkpoints maps task kinds to checkpoint directories; its key set
	// defines which tasks the daemon accepts.
	Checkpoints map[string]string
	// OutputDir receives generated videos under per-task subdirectories.
	OutputDir string
	// DefaultTimeout bounds execution when a request specifies none.
	DefaultTimeout time.Duration
	Logger         zerolog.Logger
}

// Orchestrator coordinates one generation job per calling goroutine. The host
// serves each session on its own goroutine, so Generate blocking for minutes
// is the intended model.
type Orchestrator struct {
	sched   *scheduler.Scheduler
	coord   *scheduler.Coordinator
	engine  engineRunner
	cancels *CancelRegistry
	cfg     Config
	log     zerolog.Logger
}

// New constructs an orchestrator around an existing scheduler, coordinator,
// and engine runner.
func New(sched *scheduler.Scheduler, coord *scheduler.Coordinator, engine engineRunner, cfg Config) *Orchestrator {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 2 * time.Hour
	}
	return &Orchestrator{
		sched:   sched,
		coord:   coord,
		engine:  engine,
		cancels: NewCancelRegistry(),
		cfg:     cfg,
		log:     cfg.Logger,
	}
}

// Generate runs one job end to end and blocks until a terminal state. All
// engine outcomes (completed, failed, cancelled, timed out) return a response
// and a nil error; errors are reserved for malformed requests and local
// infrastructure faults. GPUs are released on every path.
func (o *Orchestrator) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return types.GenerateResponse{}, invalidRequestError{msg: "prompt is required"}
	}
	ckptDir, ok := o.cfg.Checkpoints[req.Task]
	if !ok {
		return types.GenerateResponse{}, unknownTaskError{task: req.Task}
	}

	numGPUs := req.NumGPUs
	if numGPUs <= 0 {
		numGPUs = 1
	}
	if len(req.GPUIDs) > 0 {
		if len(req.GPUIDs) != numGPUs {
			return types.GenerateResponse{}, invalidRequestError{msg: fmt.Sprintf("gpu_ids length %d does not match num_gpus %d", len(req.GPUIDs), numGPUs)}
		}
		seen := make(map[int]struct{}, len(req.GPUIDs))
		for _, id := range req.GPUIDs {
			if id < 0 {
				return types.GenerateResponse{}, invalidRequestError{msg: fmt.Sprintf("negative gpu id %d", id)}
			}
			if _, dup := seen[id]; dup {
				return types.GenerateResponse{}, invalidRequestError{msg: fmt.Sprintf("duplicate gpu id %d", id)}
			}
			seen[id] = struct{}{}
		}
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = newJobID()
	}

	preview := req.Prompt
	if len(preview) > promptPreviewLen {
		preview = preview[:promptPreviewLen]
	}

	if err := o.sched.Submit(jobID, req.Task, preview, numGPUs); err != nil {
		return types.GenerateResponse{}, err
	}
	// Release is unconditional: a no-op if the job was never admitted.
	defer o.sched.Release(jobID)
	defer o.cancels.Clear(jobID)

	cancelled := func() bool {
		return o.cancels.IsRequested(jobID) || ctx.Err() != nil
	}

	waitStart := time.Now()
	devices, admitted := o.coord.WaitForTurn(jobID, cancelled, req.GPUIDs, func(st scheduler.WaitStatus) {
		o.log.Debug().Str("job_id", jobID).Int("position", st.Position).Str("summary", st.Summary).Msg("waiting for gpu admission")
	})
	if !admitted {
		return types.GenerateResponse{
			JobID:   jobID,
			Outcome: string(runner.OutcomeCancelled),
			Output:  "generation cancelled while waiting in queue",
		}, nil
	}
	queueWaitDuration.Observe(time.Since(waitStart).Seconds())

	outputFile, err := o.outputPath(req.Task, jobID)
	if err != nil {
		return types.GenerateResponse{}, err
	}

	timeout := o.cfg.DefaultTimeout
	if req.TimeoutSec > 0 {
		timeout = time.Duration(req.TimeoutSec) * time.Second
	}

	res := o.engine.Run(runner.Invocation{
		Script:    o.cfg.GenerateScript,
		Args:      buildEngineArgs(req, ckptDir, outputFile, numGPUs),
		GPUIDs:    devices,
		Dir:       o.cfg.EngineDir,
		Timeout:   timeout,
		Cancelled: cancelled,
	})

	generationsTotal.WithLabelValues(req.Task, string(res.Outcome)).Inc()
	generationDuration.WithLabelValues(req.Task).Observe(res.Elapsed.Seconds())

	resp := types.GenerateResponse{
		JobID:      jobID,
		Outcome:    string(res.Outcome),
		Success:    res.Success,
		Output:     res.Output,
		GPUIDs:     devices,
		ElapsedSec: res.Elapsed.Seconds(),
	}
	if res.Success {
		resp.OutputFile = outputFile
	}
	return resp, nil
}

// Cancel records a cancellation request for jobID. The job observes it at its
// next poll point, whether still queued or already running.
func (o *Orchestrator) Cancel(jobID string) types.CancelResponse {
	o.cancels.Request(jobID)
	o.log.Info().Str("job_id", jobID).Msg("cancellation requested")
	return types.CancelResponse{JobID: jobID, Requested: true}
}

// QueueStatus reports current scheduler load for the panel.
func (o *Orchestrator) QueueStatus() types.QueueStatusResponse {
	active := o.sched.ActiveJobs()
	out := types.QueueStatusResponse{
		Active:      make([]types.ActiveJobStatus, 0, len(active)),
		QueueLength: o.sched.QueueLength(),
		Summary:     o.sched.StatusMessage(),
	}
	for _, j := range active {
		out.Active = append(out.Active, types.ActiveJobStatus{
			JobID:         j.JobID,
			Task:          j.Task,
			PromptPreview: j.PromptPreview,
			GPUIDs:        j.GPUIDs,
			StartedAt:     j.StartedAt.Unix(),
		})
	}
	return out
}

// GPUs reports detected devices plus the scheduler's configured pool size.
func (o *Orchestrator) GPUs() types.GPUsResponse {
	devices := gpu.Devices()
	out := types.GPUsResponse{
		GPUs:  make([]types.GPUInfo, 0, len(devices)),
		Count: o.sched.DeviceCount(),
	}
	for _, d := range devices {
		out.GPUs = append(out.GPUs, types.GPUInfo{
			Index:         d.Index,
			Name:          d.Name,
			MemoryTotalMB: d.MemoryTotalMB,
			MemoryUsedMB:  d.MemoryUsedMB,
			MemoryFreeMB:  d.MemoryFreeMB,
		})
	}
	return out
}

// Ready reports whether the daemon can accept generation requests.
func (o *Orchestrator) Ready() bool {
	return o.cfg.GenerateScript != "" && len(o.cfg.Checkpoints) > 0
}

// outputPath builds the per-task output file path and ensures its directory
// exists.
func (o *Orchestrator) outputPath(task, jobID string) (string, error) {
	dir := filepath.Join(o.cfg.OutputDir, task)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("output_%s_%s.mp4", time.Now().Format("20060102_150405"), jobID)
	return filepath.Join(dir, name), nil
}

func newJobID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(b[:])
}
