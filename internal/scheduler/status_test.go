package scheduler

import (
	"strings"
	"testing"
)

func TestStatusMessageIdle(t *testing.T) {
	s := New(4)
	if got := s.StatusMessage(); got != "" {
		t.Fatalf("idle status = %q, want empty", got)
	}
}

func TestStatusMessageRunningAndQueued(t *testing.T) {
	s := New(4)
	if err := s.Submit("a", "t2v-A14B", "fox in snow", 2); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, ok := s.TryAcquire("a", []int{0, 1}); !ok {
		t.Fatal("acquire failed")
	}
	if err := s.Submit("b", "i2v-A14B", "waves", 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := s.StatusMessage()
	for _, want := range []string{"1 job running", "2 GPUs", "t2v-A14B", "1 in queue"} {
		if !strings.Contains(got, want) {
			t.Fatalf("status %q missing %q", got, want)
		}
	}
}

func TestStatusMessageMultipleRunning(t *testing.T) {
	s := New(4)
	if err := s.Submit("a", "t2v-A14B", "p", 2); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.Submit("b", "s2v-14B", "p", 2); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, ok := s.TryAcquire("a", []int{0, 1}); !ok {
		t.Fatal("acquire a failed")
	}
	if _, ok := s.TryAcquire("b", []int{2, 3}); !ok {
		t.Fatal("acquire b failed")
	}

	got := s.StatusMessage()
	for _, want := range []string{"2 jobs running", "4 GPUs", "t2v-A14B", "s2v-14B"} {
		if !strings.Contains(got, want) {
			t.Fatalf("status %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "in queue") {
		t.Fatalf("status %q mentions a queue when none is pending", got)
	}
}
