package types

// GenerateRequest is the payload for POST /generate. The handler blocks until
// the job finishes, is cancelled, or times out; one request occupies one
// server goroutine for the duration, mirroring one browser session.
type GenerateRequest struct {
	// Caller-generated job id, stable for the job's lifetime. If empty, the
	// server assigns one and returns it in the response.
	// example: a1b2c3d4
	JobID string `json:"job_id,omitempty" example:"a1b2c3d4"`
	// Generation task kind understood by the engine (e.g. t2v-A14B, i2v-A14B,
	// s2v-14B, animate-14B).
	// example: t2v-A14B
	Task string `json:"task" example:"t2v-A14B"`
	// Text prompt passed through to the engine.
	// example: A red fox running through fresh snow, cinematic.
	Prompt string `json:"prompt" example:"A red fox running through fresh snow, cinematic."`
	// Output resolution in the engine's WIDTH*HEIGHT form.
	// example: 1280*720
	Size string `json:"size,omitempty" example:"1280*720"`
	// Number of sampling steps.
	// example: 20
	SampleSteps int `json:"sample_steps,omitempty" example:"20"`
	// Sampler / solver name passed through to the engine.
	// example: unipc
	SampleSolver string `json:"sample_solver,omitempty" example:"unipc"`
	// Random seed; 0 or negative lets the engine choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
	// Number of output frames; 0 uses the engine default.
	// example: 81
	FrameNum int `json:"frame_num,omitempty" example:"81"`
	// Number of GPUs the job needs. Defaults to 1.
	// example: 2
	NumGPUs int `json:"num_gpus,omitempty" example:"2"`
	// Explicit GPU device indices to run on. When set, its length must equal
	// num_gpus and admission waits for exactly these devices instead of the
	// whole-pool slot.
	// example: [0,1]
	GPUIDs []int `json:"gpu_ids,omitempty" example:"0,1"`
	// Server-side path to an input image (i2v, s2v).
	ImagePath string `json:"image_path,omitempty"`
	// Server-side path to an input audio file (s2v).
	AudioPath string `json:"audio_path,omitempty"`
	// Per-job execution timeout in seconds once GPUs are held; 0 uses the
	// server default. Queue waiting is not bounded by this value.
	// example: 7200
	TimeoutSec int `json:"timeout_sec,omitempty" example:"7200"`
}

// GenerateResponse reports the terminal outcome of a generation job.
type GenerateResponse struct {
	// Job id, echoed or server-assigned.
	// example: a1b2c3d4
	JobID string `json:"job_id" example:"a1b2c3d4"`
	// One of: completed, failed, cancelled, timed_out.
	// example: completed
	Outcome string `json:"outcome" example:"completed"`
	// True only for outcome=completed.
	Success bool `json:"success"`
	// Engine output on success; diagnostic text (possibly with remediation
	// hints appended) otherwise.
	Output string `json:"output,omitempty"`
	// Path of the produced video file when the job completed.
	OutputFile string `json:"output_file,omitempty"`
	// GPU device indices the job ran on.
	// example: [0,1]
	GPUIDs []int `json:"gpu_ids,omitempty" example:"0,1"`
	// Wall-clock execution time in seconds, excluding queue wait.
	// example: 412.7
	ElapsedSec float64 `json:"elapsed_sec" example:"412.7"`
}

// ActiveJobStatus summarizes one running job for GET /queue.
type ActiveJobStatus struct {
	// example: a1b2c3d4
	JobID string `json:"job_id" example:"a1b2c3d4"`
	// example: t2v-A14B
	Task string `json:"task" example:"t2v-A14B"`
	// Short prompt excerpt for display.
	PromptPreview string `json:"prompt_preview,omitempty"`
	// Device indices held by the job.
	// example: [0,1]
	GPUIDs []int `json:"gpu_ids" example:"0,1"`
	// Admission time in unix seconds.
	// example: 1700000000
	StartedAt int64 `json:"started_at_unix" example:"1700000000"`
}

// QueueStatusResponse is returned by GET /queue.
type QueueStatusResponse struct {
	// Jobs currently holding GPUs.
	Active []ActiveJobStatus `json:"active"`
	// Number of jobs waiting for admission.
	// example: 2
	QueueLength int `json:"queue_length" example:"2"`
	// Human-readable one-line summary, empty when idle.
	// example: 1 job running on 2 GPUs (t2v-A14B), 2 in queue
	Summary string `json:"summary,omitempty" example:"1 job running on 2 GPUs (t2v-A14B), 2 in queue"`
}

// GPUInfo describes one physical device for GET /gpus.
type GPUInfo struct {
	// example: 0
	Index int `json:"index" example:"0"`
	// example: NVIDIA H100 80GB HBM3
	Name string `json:"name" example:"NVIDIA H100 80GB HBM3"`
	// example: 81559
	MemoryTotalMB int `json:"memory_total_mb" example:"81559"`
	// example: 1024
	MemoryUsedMB int `json:"memory_used_mb" example:"1024"`
	// example: 80535
	MemoryFreeMB int `json:"memory_free_mb" example:"80535"`
}

// GPUsResponse wraps device info for GET /gpus.
type GPUsResponse struct {
	GPUs []GPUInfo `json:"gpus"`
	// Pool size the scheduler was configured with.
	// example: 4
	Count int `json:"count" example:"4"`
}

// CancelResponse is returned by POST /jobs/{id}/cancel.
type CancelResponse struct {
	// example: a1b2c3d4
	JobID string `json:"job_id" example:"a1b2c3d4"`
	// Always true once the cancellation request is recorded; the job observes
	// it at its next poll point.
	Requested bool `json:"requested"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
