package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of an analysis job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// StageInitializing and StageComplete bracket every job's stage labels
const (
	StageInitializing = "Initializing"
	StageComplete     = "Complete"
)

var (
	// ErrInvalidTransition is returned when a status change would move backwards
	// or leave a terminal state
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrProgressRegression is returned when progress would decrease
	ErrProgressRegression = errors.New("job progress cannot decrease")
	// ErrProgressOutOfRange is returned for progress outside 0..100
	ErrProgressOutOfRange = errors.New("job progress must be between 0 and 100")
)

// Job is an asynchronous analysis tracked through queued -> processing ->
// completed|failed. Result and Error are mutually exclusive.
type Job struct {
	ID           uuid.UUID  `json:"job_id"`
	AnalysisType Type       `json:"analysis_type"`
	Status       JobStatus  `json:"status"`
	Progress     int        `json:"progress"`
	Stage        string     `json:"stage"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Error        string     `json:"error,omitempty"`
	Result       *Result    `json:"-"`
}

// NewJob creates a queued job
func NewJob(analysisType Type, now time.Time) *Job {
	return &Job{
		ID:           uuid.New(),
		AnalysisType: analysisType,
		Status:       JobStatusQueued,
		Progress:     0,
		Stage:        StageInitializing,
		StartedAt:    now,
	}
}

// Clone returns a copy that shares no mutable fields with j.
// The result snapshot itself is immutable once stored and is shared.
func (j *Job) Clone() *Job {
	c := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Start moves a queued job to processing
func (j *Job) Start() error {
	if j.Status != JobStatusQueued {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, JobStatusProcessing)
	}
	j.Status = JobStatusProcessing
	return nil
}

// Advance records a progress checkpoint while processing
func (j *Job) Advance(progress int, stage string) error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("%w: cannot advance a %s job", ErrInvalidTransition, j.Status)
	}
	if progress < 0 || progress > 100 {
		return ErrProgressOutOfRange
	}
	if progress < j.Progress {
		return fmt.Errorf("%w: %d -> %d", ErrProgressRegression, j.Progress, progress)
	}
	j.Progress = progress
	j.Stage = stage
	return nil
}

// Complete stores the result and pins progress at 100
func (j *Job) Complete(result *Result, now time.Time) error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, JobStatusCompleted)
	}
	if result == nil {
		return errors.New("completed job requires a result")
	}
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Stage = StageComplete
	j.Result = result
	j.Error = ""
	j.CompletedAt = &now
	return nil
}

// Fail records the error message. Queued jobs may fail directly, for example
// when they are cancelled before they start.
func (j *Job) Fail(message string, now time.Time) error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, JobStatusFailed)
	}
	if message == "" {
		message = "analysis failed"
	}
	j.Status = JobStatusFailed
	j.Error = message
	j.Result = nil
	j.CompletedAt = &now
	return nil
}

// ExpiredBy reports whether a terminal job completed before cutoff
func (j *Job) ExpiredBy(cutoff time.Time) bool {
	return j.Status.IsTerminal() && j.CompletedAt != nil && j.CompletedAt.Before(cutoff)
}
