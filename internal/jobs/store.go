package jobs

import (
	"sync"

	"github.com/nishantc/manim-video-api/internal/types"
)

// Store holds live job status records. The pipeline goroutine for a job is
// the only writer to that job's record; reads get consistent snapshots.
type Store interface {
	Create(status *types.JobStatus)
	Get(id string) (types.JobStatus, bool)
	Update(id string, fn func(*types.JobStatus)) bool
	Delete(id string) bool
}

// MemoryStore is the in-process Store used by the server. Job state does not
// survive a restart; terminal outcomes are persisted separately in the
// history database.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*types.JobStatus
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*types.JobStatus),
	}
}

// Create inserts a status record keyed by its JobID
func (s *MemoryStore) Create(status *types.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[status.JobID] = status
}

// Get returns a snapshot of a job's status
func (s *MemoryStore) Get(id string) (types.JobStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.jobs[id]
	if !ok {
		return types.JobStatus{}, false
	}
	return *status, true
}

// Update applies fn to a job's record under the store lock. Returns false
// when the id is unknown.
func (s *MemoryStore) Update(id string, fn func(*types.JobStatus)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[id]
	if !ok {
		return false
	}
	fn(status)
	return true
}

// Delete removes a job's record. Returns false when the id is unknown.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}
