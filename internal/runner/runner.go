// Package runner launches the external video-generation engine as a
// subprocess bound to a specific set of GPU devices, with cooperative
// cancellation, a hard execution timeout, and outcome classification.
// Every result, including a failure to launch, is reported through the same
// Result shape so callers have a single handling path.
package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Outcome classifies how a job ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeTimedOut  Outcome = "timed_out"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultGracePeriod  = 10 * time.Second
	defaultTimeout      = 2 * time.Hour
)

// Config holds runner construction parameters. Zero values use package
// defaults.
type Config struct {
	// PythonBin runs the engine script directly for single-GPU jobs.
	PythonBin string
	// LaunchBin is the distributed launcher used for multi-GPU jobs; it fans
	// out one engine process per requested device.
	LaunchBin string
	// PollInterval between exit/cancellation/timeout checks.
	PollInterval time.Duration
	// GracePeriod between graceful termination and a forced kill.
	GracePeriod time.Duration
	// DefaultTimeout applies when an invocation specifies none.
	DefaultTimeout time.Duration
	Logger         zerolog.Logger
}

// Runner executes engine invocations. Safe for concurrent use; each Run owns
// its subprocess and output buffers exclusively.
type Runner struct {
	cfg Config
}

// New constructs a runner, applying defaults for zero config values.
func New(cfg Config) *Runner {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if cfg.LaunchBin == "" {
		cfg.LaunchBin = "torchrun"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = defaultGracePeriod
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultTimeout
	}
	return &Runner{cfg: cfg}
}

// Invocation describes one engine run. The argument list is fully constructed
// by the caller; the runner only decides direct-vs-launcher invocation and
// the device-visibility environment.
type Invocation struct {
	// Script is the engine entry point.
	Script string
	// Args is the argument list passed to the script.
	Args []string
	// GPUIDs are the acquired device indices; visibility is restricted to
	// exactly this set.
	GPUIDs []int
	// Env entries are appended on top of the inherited environment.
	Env map[string]string
	// Dir is the working directory for the subprocess.
	Dir string
	// Timeout bounds execution once started; zero uses the runner default.
	Timeout time.Duration
	// Cancelled is polled between exit checks; a true return triggers
	// graceful-then-forceful termination.
	Cancelled func() bool
}

// Result is the uniform terminal outcome of an invocation.
type Result struct {
	Success bool
	Outcome Outcome
	// Output is the engine stdout on success, diagnostic text otherwise.
	Output  string
	Elapsed time.Duration
}

// Run executes the invocation to completion, cancellation, or timeout. It
// never returns an error; launch failures are classified as OutcomeFailed.
func (r *Runner) Run(inv Invocation) Result {
	start := time.Now()

	if strings.TrimSpace(inv.Script) == "" {
		return Result{Outcome: OutcomeFailed, Output: "generation error: no engine script configured", Elapsed: time.Since(start)}
	}
	if dup := firstDuplicate(inv.GPUIDs); dup >= 0 {
		return Result{Outcome: OutcomeFailed, Output: fmt.Sprintf("generation error: duplicate GPU id %d in %v", dup, inv.GPUIDs), Elapsed: time.Since(start)}
	}

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = r.cfg.DefaultTimeout
	}

	name, args := r.command(inv)
	cmd := exec.Command(name, args...)
	cmd.Dir = inv.Dir
	cmd.Env = r.environ(inv)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{Outcome: OutcomeFailed, Output: fmt.Sprintf("generation error: failed to start engine: %v", err), Elapsed: time.Since(start)}
	}
	r.cfg.Logger.Info().Str("bin", name).Ints("gpu_ids", inv.GPUIDs).Int("pid", cmd.Process.Pid).Msg("engine started")

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	for {
		select {
		case werr := <-waitCh:
			elapsed := time.Since(start)
			if werr != nil {
				msg := fmt.Sprintf("generation failed:\n%s\n%s", stderr.String(), stdout.String())
				msg = appendMemoryHints(msg, len(inv.GPUIDs), inv.GPUIDs)
				r.cfg.Logger.Error().Err(werr).Int("pid", cmd.Process.Pid).Dur("elapsed", elapsed).Msg("engine failed")
				return Result{Outcome: OutcomeFailed, Output: msg, Elapsed: elapsed}
			}
			r.cfg.Logger.Info().Int("pid", cmd.Process.Pid).Dur("elapsed", elapsed).Msg("engine completed")
			return Result{Success: true, Outcome: OutcomeCompleted, Output: stdout.String(), Elapsed: elapsed}
		default:
		}

		if inv.Cancelled != nil && inv.Cancelled() {
			r.terminate(cmd, waitCh)
			elapsed := time.Since(start)
			r.cfg.Logger.Info().Int("pid", cmd.Process.Pid).Dur("elapsed", elapsed).Msg("engine cancelled")
			return Result{Outcome: OutcomeCancelled, Output: "generation cancelled by user", Elapsed: elapsed}
		}

		if time.Since(start) > timeout {
			r.terminate(cmd, waitCh)
			elapsed := time.Since(start)
			r.cfg.Logger.Warn().Int("pid", cmd.Process.Pid).Dur("elapsed", elapsed).Msg("engine timed out")
			return Result{Outcome: OutcomeTimedOut, Output: fmt.Sprintf("generation timed out after %s", timeout), Elapsed: elapsed}
		}

		time.Sleep(r.cfg.PollInterval)
	}
}

// command picks direct or launcher invocation based on the device count.
func (r *Runner) command(inv Invocation) (string, []string) {
	if len(inv.GPUIDs) > 1 {
		args := []string{fmt.Sprintf("--nproc_per_node=%d", len(inv.GPUIDs)), inv.Script}
		return r.cfg.LaunchBin, append(args, inv.Args...)
	}
	return r.cfg.PythonBin, append([]string{inv.Script}, inv.Args...)
}

// environ builds the subprocess environment: inherited vars, device
// visibility restricted to the acquired set, allocator tuning, NCCL tuning
// for multi-GPU runs, and finally the caller's overlay.
func (r *Runner) environ(inv Invocation) []string {
	env := os.Environ()
	if len(inv.GPUIDs) > 0 {
		ids := make([]string, len(inv.GPUIDs))
		for i, id := range inv.GPUIDs {
			ids[i] = strconv.Itoa(id)
		}
		env = append(env, "CUDA_VISIBLE_DEVICES="+strings.Join(ids, ","))
	}
	env = append(env, "PYTORCH_CUDA_ALLOC_CONF=expandable_segments:True,garbage_collection_threshold:0.8")
	if len(inv.GPUIDs) > 1 {
		env = append(env, "NCCL_NVLS_ENABLE=1", "NCCL_P2P_LEVEL=NVL")
	}
	for k, v := range inv.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// terminate requests graceful shutdown, waits out the grace period, then
// force kills. Always reaps the wait goroutine before returning so output
// buffers are quiescent.
func (r *Runner) terminate(cmd *exec.Cmd, waitCh <-chan error) {
	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-waitCh:
	case <-time.After(r.cfg.GracePeriod):
		_ = cmd.Process.Kill()
		<-waitCh
	}
}

func firstDuplicate(ids []int) int {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return -1
}
