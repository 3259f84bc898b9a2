package scheduler

import "errors"

var (
	// ErrJobNotFound is returned when a job id is unknown or already cleaned up
	ErrJobNotFound = errors.New("analysis job not found")

	// ErrJobNotReady is returned when a job exists but has not completed
	ErrJobNotReady = errors.New("analysis job not ready")

	// ErrJobTerminal is returned when an update targets a completed or failed job
	ErrJobTerminal = errors.New("analysis job already finished")

	// ErrInconsistentJob is returned when an update would leave result and error
	// set together, or a terminal job without its result or error
	ErrInconsistentJob = errors.New("inconsistent analysis job state")

	// ErrRunnerClosed is returned when submitting work to a runner that is shutting down
	ErrRunnerClosed = errors.New("job runner is closed")

	// ErrJobAlreadyRunning is returned when a job id already has an active task
	ErrJobAlreadyRunning = errors.New("analysis job already has an active task")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
