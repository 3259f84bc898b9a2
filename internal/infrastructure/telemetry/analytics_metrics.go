package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// AnalyticsMetrics records analysis job and insight activity.
// A nil *AnalyticsMetrics is valid and records nothing.
type AnalyticsMetrics struct {
	jobsStarted   *Counter
	jobsFinished  *Counter
	jobDuration   *Histogram
	insights      *Counter
	kpiComputed   *Counter
	kpiComputeDur *Histogram
}

// NewAnalyticsMetrics creates the service's instruments on meter
func NewAnalyticsMetrics(meter metric.Meter) (*AnalyticsMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &AnalyticsMetrics{}
	var err error

	if m.jobsStarted, err = NewCounter(meter,
		"medstock_analysis_jobs_started_total",
		"Analysis jobs that entered processing",
		"{jobs}",
	); err != nil {
		return nil, err
	}
	if m.jobsFinished, err = NewCounter(meter,
		"medstock_analysis_jobs_finished_total",
		"Analysis jobs that reached a terminal state",
		"{jobs}",
	); err != nil {
		return nil, err
	}
	if m.jobDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "medstock_analysis_job_duration_seconds",
		Description: "Wall time from processing to terminal state",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.insights, err = NewCounter(meter,
		"medstock_insights_generated_total",
		"Quick-insight summaries by kind",
		"{summaries}",
	); err != nil {
		return nil, err
	}
	if m.kpiComputed, err = NewCounter(meter,
		"medstock_kpi_computations_total",
		"KPI snapshots computed on cache miss",
		"{computations}",
	); err != nil {
		return nil, err
	}
	if m.kpiComputeDur, err = NewHistogram(meter, HistogramOpts{
		Name:        "medstock_kpi_computation_duration_seconds",
		Description: "Time spent computing a KPI snapshot",
		Unit:        "s",
	}); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordJobStarted counts a job entering processing
func (m *AnalyticsMetrics) RecordJobStarted(ctx context.Context, analysisType string) {
	if m == nil {
		return
	}
	m.jobsStarted.Inc(ctx, AttrAnalysisType.String(analysisType))
}

// RecordJobFinished counts a terminal job and its duration
func (m *AnalyticsMetrics) RecordJobFinished(ctx context.Context, analysisType, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsFinished.Inc(ctx, AttrAnalysisType.String(analysisType), AttrJobStatus.String(status))
	m.jobDuration.RecordDuration(ctx, elapsed, AttrAnalysisType.String(analysisType), AttrJobStatus.String(status))
}

// RecordInsight counts a generated summary by kind
func (m *AnalyticsMetrics) RecordInsight(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.insights.Inc(ctx, AttrInsightKind.String(kind))
}

// RecordKPIComputation counts a KPI snapshot computation
func (m *AnalyticsMetrics) RecordKPIComputation(ctx context.Context, timeRange string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.kpiComputed.Inc(ctx, AttrTimeRange.String(timeRange))
	m.kpiComputeDur.RecordDuration(ctx, elapsed, AttrTimeRange.String(timeRange))
}
