package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medstock/backend/internal/domain/analysis"
	"github.com/medstock/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CancelledMessage is recorded on jobs whose task was cancelled
const CancelledMessage = "cancelled"

// ProgressFunc records a checkpoint for the running job.
// It returns an error once the task has been cancelled.
type ProgressFunc func(progress int, stage string) error

// WorkFunc performs an analysis, reporting checkpoints through progress.
type WorkFunc func(ctx context.Context, progress ProgressFunc) (*analysis.Result, error)

// RunnerConfig holds runner configuration
type RunnerConfig struct {
	// StageDelay is the pause after each checkpoint, letting pollers observe progress
	StageDelay time.Duration
	// Timeout bounds a single job; zero means no limit
	Timeout time.Duration
}

// Task is the handle of a job running in the background.
type Task struct {
	JobID uuid.UUID

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel requests cancellation. The job is marked failed once the work returns.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task has finished and the job reached a terminal state
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the task outcome, or nil while it is still running
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Runner executes analysis jobs in their own goroutines and records every
// state change in the Registry. Failed jobs are never retried.
type Runner struct {
	config   RunnerConfig
	registry *Registry
	logger   *zap.Logger
	metrics  *telemetry.AnalyticsMetrics

	mu     sync.Mutex
	tasks  map[uuid.UUID]*Task
	closed bool
	wg     sync.WaitGroup
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRunnerMetrics records job counts and durations
func WithRunnerMetrics(m *telemetry.AnalyticsMetrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a runner bound to registry
func NewRunner(config RunnerConfig, registry *Registry, logger *zap.Logger, opts ...RunnerOption) (*Runner, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrInvalidConfig)
	}
	if config.StageDelay < 0 || config.Timeout < 0 {
		return nil, fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		config:   config,
		registry: registry,
		logger:   logger,
		tasks:    make(map[uuid.UUID]*Task),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run starts work for a queued job and returns immediately.
//
// The task keeps the values of ctx (trace, request logger) but not its
// cancellation, so it outlives the request that started it.
func (r *Runner) Run(ctx context.Context, jobID uuid.UUID, work WorkFunc) (*Task, error) {
	job, err := r.registry.Get(jobID)
	if err != nil {
		return nil, err
	}

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if r.config.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		taskCtx, timeoutCancel = context.WithTimeout(taskCtx, r.config.Timeout)
		parentCancel := cancel
		cancel = func() {
			timeoutCancel()
			parentCancel()
		}
	}

	task := &Task{
		JobID:  jobID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		cancel()
		return nil, ErrRunnerClosed
	}
	if _, exists := r.tasks[jobID]; exists {
		r.mu.Unlock()
		cancel()
		return nil, ErrJobAlreadyRunning
	}
	r.tasks[jobID] = task
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		telemetry.WithProfilingLabels(taskCtx, map[string]string{
			telemetry.ProfilingLabelOperation: "analysis_job",
			"analysis_type":                   string(job.AnalysisType),
		}, func(c context.Context) {
			r.execute(c, task, job.AnalysisType, work)
		})
	}()

	return task, nil
}

// Active returns the number of running tasks
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Shutdown stops accepting work, cancels running tasks and waits for them
// to record their terminal state, or for ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	running := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		running = append(running, t)
	}
	r.mu.Unlock()

	for _, t := range running {
		t.Cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Analysis job runner stopped", zap.Int("cancelled", len(running)))
		return nil
	case <-ctx.Done():
		r.logger.Warn("Analysis job runner stop timed out", zap.Int("running", r.Active()))
		return ctx.Err()
	}
}

func (r *Runner) execute(ctx context.Context, task *Task, analysisType analysis.Type, work WorkFunc) {
	start := time.Now()
	log := r.logger.With(
		zap.String("job_id", task.JobID.String()),
		zap.String("analysis_type", string(analysisType)),
	)

	defer func() {
		task.cancel()
		r.mu.Lock()
		delete(r.tasks, task.JobID)
		r.mu.Unlock()
		close(task.done)
		r.wg.Done()
	}()

	if _, err := r.registry.Update(task.JobID, func(j *analysis.Job) error { return j.Start() }); err != nil {
		log.Error("Failed to start analysis job", zap.Error(err))
		task.err = err
		return
	}
	r.metrics.RecordJobStarted(ctx, string(analysisType))
	log.Info("Analysis job started")

	result, err := r.invoke(ctx, task.JobID, work)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	if err != nil {
		task.err = err
		message := failureMessage(err, r.config.Timeout)
		if _, uerr := r.registry.Update(task.JobID, func(j *analysis.Job) error {
			return j.Fail(message, r.registry.Now())
		}); uerr != nil {
			log.Error("Failed to record analysis job failure", zap.Error(uerr))
		}
		r.metrics.RecordJobFinished(ctx, string(analysisType), string(analysis.JobStatusFailed), time.Since(start))
		log.Warn("Analysis job failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}

	if _, err := r.registry.Update(task.JobID, func(j *analysis.Job) error {
		return j.Complete(result, r.registry.Now())
	}); err != nil {
		task.err = err
		log.Error("Failed to record analysis job result", zap.Error(err))
		_, _ = r.registry.Update(task.JobID, func(j *analysis.Job) error {
			return j.Fail(err.Error(), r.registry.Now())
		})
		r.metrics.RecordJobFinished(ctx, string(analysisType), string(analysis.JobStatusFailed), time.Since(start))
		return
	}
	r.metrics.RecordJobFinished(ctx, string(analysisType), string(analysis.JobStatusCompleted), time.Since(start))
	log.Info("Analysis job completed", zap.Duration("elapsed", time.Since(start)))
}

// invoke runs work, turning a panic into an error
func (r *Runner) invoke(ctx context.Context, jobID uuid.UUID, work WorkFunc) (result *analysis.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Analysis job panicked",
				zap.String("job_id", jobID.String()),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			result, err = nil, fmt.Errorf("analysis panicked: %v", rec)
		}
	}()

	progress := func(p int, stage string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.registry.Update(jobID, func(j *analysis.Job) error {
			return j.Advance(p, stage)
		}); err != nil {
			return err
		}
		if r.config.StageDelay <= 0 {
			return nil
		}
		timer := time.NewTimer(r.config.StageDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return work(ctx, progress)
}

func failureMessage(err error, timeout time.Duration) string {
	switch {
	case errors.Is(err, context.Canceled):
		return CancelledMessage
	case errors.Is(err, context.DeadlineExceeded) && timeout > 0:
		return fmt.Sprintf("timed out after %s", timeout)
	default:
		return err.Error()
	}
}
