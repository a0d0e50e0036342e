package runner

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// testRunner uses /bin/sh as the "engine interpreter" so shell scripts stand
// in for the generation engine, with short intervals to keep tests fast.
func testRunner() *Runner {
	return New(Config{
		PythonBin:      "/bin/sh",
		LaunchBin:      "/bin/sh",
		PollInterval:   20 * time.Millisecond,
		GracePeriod:    200 * time.Millisecond,
		DefaultTimeout: 5 * time.Second,
	})
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "engine.sh")
	if err := os.WriteFile(p, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

func TestRunSuccess(t *testing.T) {
	r := testRunner()
	script := writeScript(t, "echo done\n")
	res := r.Run(Invocation{Script: script, GPUIDs: []int{0}})
	if !res.Success || res.Outcome != OutcomeCompleted {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, "done") {
		t.Fatalf("output = %q", res.Output)
	}
	if res.Elapsed <= 0 {
		t.Fatalf("elapsed = %v", res.Elapsed)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := testRunner()
	script := writeScript(t, "echo oops >&2\nexit 3\n")
	res := r.Run(Invocation{Script: script, GPUIDs: []int{0}})
	if res.Success || res.Outcome != OutcomeFailed {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, "generation failed") || !strings.Contains(res.Output, "oops") {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestRunTimeout(t *testing.T) {
	r := testRunner()
	script := writeScript(t, "sleep 30\n")
	start := time.Now()
	res := r.Run(Invocation{Script: script, GPUIDs: []int{0}, Timeout: 150 * time.Millisecond})
	if res.Outcome != OutcomeTimedOut {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, "timed out") {
		t.Fatalf("output = %q", res.Output)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatal("timeout enforcement took too long")
	}
}

func TestRunCancellation(t *testing.T) {
	r := testRunner()
	script := writeScript(t, "sleep 30\n")
	var cancel atomic.Bool
	go func() {
		time.Sleep(60 * time.Millisecond)
		cancel.Store(true)
	}()
	res := r.Run(Invocation{Script: script, GPUIDs: []int{0}, Cancelled: cancel.Load})
	if res.Outcome != OutcomeCancelled {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, "cancelled") {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestRunForcedKillAfterGrace(t *testing.T) {
	r := testRunner()
	// The trap ignores SIGTERM, forcing the kill path after the grace period.
	script := writeScript(t, "trap '' TERM\nsleep 30\n")
	res := r.Run(Invocation{Script: script, GPUIDs: []int{0}, Timeout: 100 * time.Millisecond})
	if res.Outcome != OutcomeTimedOut {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunDeviceVisibility(t *testing.T) {
	r := testRunner()
	script := writeScript(t, "echo \"visible=$CUDA_VISIBLE_DEVICES\"\n")
	res := r.Run(Invocation{Script: script, GPUIDs: []int{3}})
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, "visible=3") {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestRunEnvOverlay(t *testing.T) {
	r := testRunner()
	script := writeScript(t, "echo \"extra=$EXTRA_VAR\"\n")
	res := r.Run(Invocation{Script: script, GPUIDs: []int{0}, Env: map[string]string{"EXTRA_VAR": "hello"}})
	if !strings.Contains(res.Output, "extra=hello") {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestRunLaunchFailure(t *testing.T) {
	r := New(Config{PythonBin: "/nonexistent/interpreter", PollInterval: 10 * time.Millisecond})
	res := r.Run(Invocation{Script: "whatever.py", GPUIDs: []int{0}})
	if res.Success || res.Outcome != OutcomeFailed {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Output, "failed to start engine") {
		t.Fatalf("output = %q", res.Output)
	}
}

func TestRunRejectsDuplicateDevices(t *testing.T) {
	r := testRunner()
	res := r.Run(Invocation{Script: "engine.py", GPUIDs: []int{0, 1, 0}})
	if res.Outcome != OutcomeFailed || !strings.Contains(res.Output, "duplicate GPU id") {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunRejectsEmptyScript(t *testing.T) {
	r := testRunner()
	res := r.Run(Invocation{Script: "  ", GPUIDs: []int{0}})
	if res.Outcome != OutcomeFailed {
		t.Fatalf("result = %+v", res)
	}
}
