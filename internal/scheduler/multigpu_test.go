package scheduler

import (
	"fmt"
	"sync"
	"testing"
)

func TestMultiGPUAvailabilityOrder(t *testing.T) {
	s := New(4)
	// Occupy devices 0,1 so job a cannot run.
	mustSubmit(t, s, "holder")
	if _, ok := s.TryAcquire("holder", []int{0, 1}); !ok {
		t.Fatal("holder not admitted")
	}

	mustSubmit(t, s, "a") // wants {0,1}, busy
	mustSubmit(t, s, "b") // wants {2}, free

	if _, ok := s.TryAcquire("a", []int{0, 1}); ok {
		t.Fatal("a admitted on busy devices")
	}
	// b was submitted after a but its devices are free: it jumps ahead.
	devices, ok := s.TryAcquire("b", []int{2})
	if !ok {
		t.Fatal("b not admitted despite free device")
	}
	if len(devices) != 1 || devices[0] != 2 {
		t.Fatalf("b assigned %v, want [2]", devices)
	}

	s.Release("holder")
	if _, ok := s.TryAcquire("a", []int{0, 1}); !ok {
		t.Fatal("a not admitted after devices freed")
	}
}

func TestMultiGPUDisjointJobsRunConcurrently(t *testing.T) {
	s := New(4)
	mustSubmit(t, s, "j1")
	mustSubmit(t, s, "j2")
	if _, ok := s.TryAcquire("j1", []int{0, 1}); !ok {
		t.Fatal("j1 not admitted")
	}
	if _, ok := s.TryAcquire("j2", []int{2, 3}); !ok {
		t.Fatal("j2 not admitted alongside j1")
	}
	jobs := s.ActiveJobs()
	if len(jobs) != 2 {
		t.Fatalf("active jobs = %d, want 2", len(jobs))
	}
	total := 0
	for _, j := range jobs {
		total += len(j.GPUIDs)
	}
	if total != 4 {
		t.Fatalf("device assignments sum to %d, want 4", total)
	}
}

func TestMultiGPUPartialOverlapBlocks(t *testing.T) {
	s := New(4)
	mustSubmit(t, s, "j1")
	if _, ok := s.TryAcquire("j1", []int{1, 2}); !ok {
		t.Fatal("j1 not admitted")
	}
	mustSubmit(t, s, "j2")
	// One of the requested devices is held: no partial admission.
	if _, ok := s.TryAcquire("j2", []int{2, 3}); ok {
		t.Fatal("j2 admitted with a busy device in its set")
	}
	s.Release("j1")
	devices, ok := s.TryAcquire("j2", []int{2, 3})
	if !ok {
		t.Fatal("j2 not admitted after release")
	}
	if len(devices) != 2 || devices[0] != 2 || devices[1] != 3 {
		t.Fatalf("j2 assigned %v, want [2 3]", devices)
	}
}

// Hammer the scheduler from many goroutines and verify no device index is
// ever assigned to two jobs at once.
func TestMutualExclusionUnderConcurrency(t *testing.T) {
	const (
		workers = 16
		rounds  = 200
		devices = 4
	)
	s := New(devices)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			want := []int{w % devices, (w + 1) % devices}
			for r := 0; r < rounds; r++ {
				id := fmt.Sprintf("w%d-r%d", w, r)
				if err := s.Submit(id, "t2v-A14B", "p", len(want)); err != nil {
					t.Errorf("submit: %v", err)
					return
				}
				got, ok := s.TryAcquire(id, want)
				if !ok {
					s.Cancel(id)
					continue
				}
				// Snapshot while held: every device must appear exactly once
				// across all active jobs.
				seen := map[int]string{}
				for _, j := range s.ActiveJobs() {
					for _, d := range j.GPUIDs {
						if prev, dup := seen[d]; dup {
							t.Errorf("device %d held by both %s and %s", d, prev, j.JobID)
						}
						seen[d] = j.JobID
					}
				}
				if len(got) != len(want) {
					t.Errorf("assigned %v, requested %v", got, want)
				}
				s.Release(id)
			}
		}(w)
	}
	wg.Wait()

	if n := len(s.ActiveJobs()); n != 0 {
		t.Fatalf("%d jobs leaked after all releases", n)
	}
}

// Single-slot admissions racing from many goroutines: at most one job may
// ever be active, and every admitted job is eventually released.
func TestSingleSlotExclusionUnderConcurrency(t *testing.T) {
	const workers = 12
	s := New(2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", w)
			if err := s.Submit(id, "t2v-A14B", "p", 1); err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			for {
				if _, ok := s.TryAcquire(id, nil); ok {
					break
				}
			}
			if n := len(s.ActiveJobs()); n != 1 {
				t.Errorf("active=%d while holding single slot", n)
			}
			s.Release(id)
		}(w)
	}
	wg.Wait()

	if got := s.QueueLength(); got != 0 {
		t.Fatalf("queue length = %d after drain, want 0", got)
	}
}
