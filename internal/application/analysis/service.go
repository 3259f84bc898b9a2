// Package analysis runs multi-stage warehouse analyses as background jobs.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medstock/backend/internal/domain/analysis"
	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/domain/shared"
	"github.com/medstock/backend/internal/infrastructure/cache"
	"github.com/medstock/backend/internal/infrastructure/logger"
	"github.com/medstock/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// DefaultResultTTL is how long a finished analysis result is reused for identical input
const DefaultResultTTL = time.Hour

// KPIComputer produces KPI snapshots
type KPIComputer interface {
	ComputeKPIs(ctx context.Context, timeRange analytics.TimeRange, filter analytics.Filter) (*analytics.KPIResult, error)
}

// Summarizer turns a metrics payload into recommendations
type Summarizer interface {
	Summarize(ctx context.Context, metrics map[string]any) (*analytics.InsightSummary, error)
}

// StartRequest describes an analysis to run
type StartRequest struct {
	AnalysisType string           `json:"analysis_type"`
	TimeRange    string           `json:"time_range"`
	Filter       analytics.Filter `json:"filters"`
}

// Service starts analysis jobs and reports their status and results
type Service struct {
	registry    *scheduler.Registry
	runner      *scheduler.Runner
	orders      analytics.OrderRepository
	consumption analytics.ConsumptionRepository
	kpis        KPIComputer
	summarizer  Summarizer
	cache       cache.Store
	ttl         time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithResultTTL overrides DefaultResultTTL
func WithResultTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source for windows and result timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new Service
func NewService(
	registry *scheduler.Registry,
	runner *scheduler.Runner,
	orders analytics.OrderRepository,
	consumption analytics.ConsumptionRepository,
	kpis KPIComputer,
	summarizer Summarizer,
	store cache.Store,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		registry:    registry,
		runner:      runner,
		orders:      orders,
		consumption: consumption,
		kpis:        kpis,
		summarizer:  summarizer,
		cache:       store,
		ttl:         DefaultResultTTL,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartAnalysis validates req, registers a queued job and starts it in the
// background. The returned snapshot is the job as it was queued.
func (s *Service) StartAnalysis(ctx context.Context, req StartRequest) (*analysis.Job, error) {
	analysisType, err := analysis.ParseType(req.AnalysisType)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInvalidInput, "Invalid analysis type", err)
	}
	tr, err := analytics.ParseTimeRange(req.TimeRange)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInvalidInput, "Invalid time range", err)
	}

	job := s.registry.Create(analysisType)
	p := &pipeline{service: s, analysisType: analysisType, timeRange: tr, filter: req.Filter}

	if _, err := s.runner.Run(ctx, job.ID, p.run); err != nil {
		// The job never ran; leave a failed record rather than a queued orphan.
		if _, uerr := s.registry.Update(job.ID, func(j *analysis.Job) error {
			return j.Fail(err.Error(), s.registry.Now())
		}); uerr != nil {
			logger.For(ctx, s.logger).Error("Failed to mark unstarted job as failed", zap.Error(uerr))
		}
		if errors.Is(err, scheduler.ErrRunnerClosed) {
			return nil, shared.WrapDomainError(shared.CodeInvalidState, "Analysis runner is shutting down", err)
		}
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Analysis job queued",
		zap.String("job_id", job.ID.String()),
		zap.String("analysis_type", string(analysisType)),
		zap.String("time_range", string(tr)),
	)
	return job, nil
}

// GetJobStatus returns the current snapshot of a job. The snapshot never
// carries the result payload.
func (s *Service) GetJobStatus(_ context.Context, jobID string) (*analysis.Job, error) {
	id, err := parseJobID(jobID)
	if err != nil {
		return nil, err
	}
	job, err := s.registry.Get(id)
	if err != nil {
		return nil, notFound(jobID, err)
	}
	job.Result = nil
	return job, nil
}

// GetJobResult returns the snapshot of a completed job with its result.
// When the job exists but has not completed, the snapshot is returned
// together with a NOT_READY error so callers can report where it stands.
func (s *Service) GetJobResult(_ context.Context, jobID string) (*analysis.Job, error) {
	id, err := parseJobID(jobID)
	if err != nil {
		return nil, err
	}
	job, err := s.registry.Result(id)
	switch {
	case errors.Is(err, scheduler.ErrJobNotReady):
		return job, shared.WrapDomainError(shared.CodeNotReady, "Analysis has not completed", err)
	case err != nil:
		return nil, notFound(jobID, err)
	}
	return job, nil
}

// Cleanup removes finished jobs whose completion is older than retention
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	if retention < 0 {
		return 0, shared.NewDomainError(shared.CodeInvalidInput, "Retention cannot be negative")
	}
	removed := s.registry.Cleanup(retention)
	logger.For(ctx, s.logger).Info("Analysis jobs cleaned up",
		zap.Int("removed", removed),
		zap.Duration("retention", retention),
		zap.Int("remaining", s.registry.Len()),
	)
	return removed, nil
}

// JobCounts returns the number of tracked jobs per status
func (s *Service) JobCounts() map[analysis.JobStatus]int {
	return s.registry.Counts()
}

func parseJobID(jobID string) (uuid.UUID, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return uuid.Nil, shared.WrapDomainError(shared.CodeNotFound, "Analysis job not found", err)
	}
	return id, nil
}

func notFound(jobID string, err error) error {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		return shared.WrapDomainError(shared.CodeNotFound, "Analysis job not found", err)
	}
	return err
}
