package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func newTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false, ServiceName: "test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestCounterAndHistogram(t *testing.T) {
	ctx := context.Background()
	provider, reader := newTestMeter(t)
	meter := provider.Meter("test")

	counter, err := NewCounter(meter, "test_total", "test counter", "{items}")
	require.NoError(t, err)
	counter.Inc(ctx)
	counter.Add(ctx, 4, AttrOperation.String("x"))

	hist, err := NewHistogram(meter, HistogramOpts{
		Name:       "test_duration_seconds",
		Unit:       "s",
		Boundaries: []float64{0.1, 1},
	})
	require.NoError(t, err)
	hist.RecordDuration(ctx, 500*time.Millisecond)
	hist.Record(ctx, 2)

	m, ok := findMetric(t, reader, "test_total")
	require.True(t, ok)
	assert.Equal(t, int64(5), sumValue(t, m))

	m, ok = findMetric(t, reader, "test_duration_seconds")
	require.True(t, ok)
	h, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(2), h.DataPoints[0].Count)
	assert.Equal(t, 2.5, h.DataPoints[0].Sum)
}

func TestAnalyticsMetrics(t *testing.T) {
	ctx := context.Background()
	provider, reader := newTestMeter(t)

	m, err := NewAnalyticsMetrics(provider.Meter("analytics"))
	require.NoError(t, err)

	m.RecordJobStarted(ctx, "full")
	m.RecordJobFinished(ctx, "full", "completed", 2*time.Second)
	m.RecordJobStarted(ctx, "quick_assessment")
	m.RecordJobFinished(ctx, "quick_assessment", "failed", time.Second)
	m.RecordInsight(ctx, "generic")
	m.RecordKPIComputation(ctx, "30d", 10*time.Millisecond)

	started, ok := findMetric(t, reader, "medstock_analysis_jobs_started_total")
	require.True(t, ok)
	assert.Equal(t, int64(2), sumValue(t, started))

	finished, ok := findMetric(t, reader, "medstock_analysis_jobs_finished_total")
	require.True(t, ok)
	assert.Equal(t, int64(2), sumValue(t, finished))

	insights, ok := findMetric(t, reader, "medstock_insights_generated_total")
	require.True(t, ok)
	assert.Equal(t, int64(1), sumValue(t, insights))

	kpis, ok := findMetric(t, reader, "medstock_kpi_computations_total")
	require.True(t, ok)
	assert.Equal(t, int64(1), sumValue(t, kpis))
}

func TestAnalyticsMetrics_NilSafe(t *testing.T) {
	var m *AnalyticsMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordJobStarted(ctx, "full")
		m.RecordJobFinished(ctx, "full", "failed", time.Second)
		m.RecordInsight(ctx, "structured")
		m.RecordKPIComputation(ctx, "7d", time.Millisecond)
	})
}

func TestNewAnalyticsMetrics_NilMeter(t *testing.T) {
	_, err := NewAnalyticsMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}
