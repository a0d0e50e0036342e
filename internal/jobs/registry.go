package jobs

import "sync"

// CancelRegistry records explicit cancellation requests per job id. Jobs poll
// it cooperatively at their defined poll points; a request made between polls
// is observed at the next one.
type CancelRegistry struct {
	mu        sync.Mutex
	requested map[string]struct{}
}

// NewCancelRegistry constructs an empty registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{requested: make(map[string]struct{})}
}

// Request marks jobID for cancellation. Idempotent.
func (r *CancelRegistry) Request(jobID string) {
	r.mu.Lock()
	r.requested[jobID] = struct{}{}
	r.mu.Unlock()
}

// IsRequested reports whether cancellation was requested for jobID.
func (r *CancelRegistry) IsRequested(jobID string) bool {
	r.mu.Lock()
	_, ok := r.requested[jobID]
	r.mu.Unlock()
	return ok
}

// Clear removes jobID from the registry once its job reaches a terminal
// state, so a reused id starts clean.
func (r *CancelRegistry) Clear(jobID string) {
	r.mu.Lock()
	delete(r.requested, jobID)
	r.mu.Unlock()
}
