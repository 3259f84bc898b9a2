// Package scheduler tracks asynchronous analysis jobs and runs them off the request path.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medstock/backend/internal/domain/analysis"
)

// Registry is the process-wide store of analysis jobs.
//
// Records are replaced whole on every update, so readers always see either
// the state before an update or the state after it. Callers get copies and
// never hold a pointer into the registry.
type Registry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*analysis.Job
	now  func() time.Time
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithRegistryClock overrides the time source
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		jobs: make(map[uuid.UUID]*analysis.Job),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the registry's current time
func (r *Registry) Now() time.Time {
	return r.now()
}

// Create allocates a queued job and returns a snapshot of it
func (r *Registry) Create(analysisType analysis.Type) *analysis.Job {
	job := analysis.NewJob(analysisType, r.now())

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	return job.Clone()
}

// Get returns a snapshot of the job
func (r *Registry) Get(id uuid.UUID) (*analysis.Job, error) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// Result returns a snapshot carrying the result of a completed job.
// For a job that exists but has not completed, the snapshot is returned
// together with ErrJobNotReady so the caller can report its status.
func (r *Registry) Result(id uuid.UUID) (*analysis.Job, error) {
	job, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if job.Status != analysis.JobStatusCompleted {
		return job, ErrJobNotReady
	}
	return job, nil
}

// Update applies mutate to a copy of the job and swaps the copy in.
// The stored record is left untouched if mutate fails or the new state
// is not a valid successor of the old one.
func (r *Registry) Update(id uuid.UUID, mutate func(job *analysis.Job) error) (*analysis.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: job %s is %s", ErrJobTerminal, id, current.Status)
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := checkSuccessor(current, next); err != nil {
		return nil, err
	}

	r.jobs[id] = next
	return next.Clone(), nil
}

// Cleanup removes finished jobs whose completion time is older than retention
// and returns how many were removed. Jobs still queued or processing are kept.
func (r *Registry) Cleanup(retention time.Duration) int {
	cutoff := r.now().Add(-retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, job := range r.jobs {
		if job.ExpiredBy(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// Counts returns the number of jobs per status
func (r *Registry) Counts() map[analysis.JobStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[analysis.JobStatus]int, 4)
	for _, job := range r.jobs {
		counts[job.Status]++
	}
	return counts
}

// Len returns the number of tracked jobs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

var statusRank = map[analysis.JobStatus]int{
	analysis.JobStatusQueued:     0,
	analysis.JobStatusProcessing: 1,
	analysis.JobStatusCompleted:  2,
	analysis.JobStatusFailed:     2,
}

func checkSuccessor(prev, next *analysis.Job) error {
	if next.ID != prev.ID || next.AnalysisType != prev.AnalysisType {
		return fmt.Errorf("%w: job identity changed", ErrInconsistentJob)
	}
	if statusRank[next.Status] < statusRank[prev.Status] {
		return fmt.Errorf("%w: %s -> %s", analysis.ErrInvalidTransition, prev.Status, next.Status)
	}
	if next.Progress < prev.Progress {
		return fmt.Errorf("%w: %d -> %d", analysis.ErrProgressRegression, prev.Progress, next.Progress)
	}

	switch next.Status {
	case analysis.JobStatusCompleted:
		if next.Result == nil || next.Error != "" || next.Progress != 100 {
			return fmt.Errorf("%w: completed job needs a result, no error and progress 100", ErrInconsistentJob)
		}
	case analysis.JobStatusFailed:
		if next.Result != nil || next.Error == "" {
			return fmt.Errorf("%w: failed job needs an error and no result", ErrInconsistentJob)
		}
	default:
		if next.Result != nil || next.Error != "" || next.CompletedAt != nil {
			return fmt.Errorf("%w: unfinished job cannot carry a result, error or completion time", ErrInconsistentJob)
		}
	}
	return nil
}
