package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/domain/shared"
	"github.com/medstock/backend/internal/infrastructure/cache"
	"github.com/medstock/backend/internal/infrastructure/logger"
	"github.com/medstock/backend/internal/infrastructure/reasoning"
	"github.com/medstock/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InsightOperation is the fingerprint operation name of insight summaries
const InsightOperation = "quick_insights"

// DefaultInsightTTL is how long a summary is served from cache
const DefaultInsightTTL = 15 * time.Minute

const insightSystemPrompt = `You are an analyst for a pharmacy warehouse. You receive operational metrics as JSON.
Answer with a single JSON object and nothing else, using this shape:
{"insights": ["..."], "actions": ["..."], "impact": "..."}
Give at most 4 insights and 4 actions. Each item is one short sentence grounded in the numbers.`

// InsightService turns metric payloads into short advisory summaries
type InsightService struct {
	reasoner reasoning.Reasoner
	cache    cache.Store
	ttl      time.Duration
	metrics  *telemetry.AnalyticsMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// InsightOption configures an InsightService
type InsightOption func(*InsightService)

// WithInsightTTL overrides DefaultInsightTTL
func WithInsightTTL(ttl time.Duration) InsightOption {
	return func(s *InsightService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithInsightMetrics counts summaries by kind
func WithInsightMetrics(m *telemetry.AnalyticsMetrics) InsightOption {
	return func(s *InsightService) {
		s.metrics = m
	}
}

// WithInsightClock overrides the time source for GeneratedAt
func WithInsightClock(now func() time.Time) InsightOption {
	return func(s *InsightService) {
		s.now = now
	}
}

// NewInsightService creates a new InsightService
func NewInsightService(reasoner reasoning.Reasoner, store cache.Store, logger *zap.Logger, opts ...InsightOption) *InsightService {
	s := &InsightService{
		reasoner: reasoner,
		cache:    store,
		ttl:      DefaultInsightTTL,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize returns insights for metrics. Structured and fallback summaries
// are cached by the metrics fingerprint. When the reasoning service is
// unavailable or its answer cannot be used, a generic summary is built
// locally and returned without an error; generic summaries are not cached so
// the next request retries upstream. An empty payload gets the generic
// summary straight away.
func (s *InsightService) Summarize(ctx context.Context, metrics map[string]any) (*analytics.InsightSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "analytics", "quick_insights")
	defer span.End()

	if len(metrics) == 0 {
		summary := GenericSummary(metrics, s.now())
		span.SetAttributes(telemetry.AttrInsightKind.String(string(summary.Kind)))
		s.metrics.RecordInsight(ctx, string(summary.Kind))
		telemetry.SetOK(span)
		return summary, nil
	}

	key, err := cache.Fingerprint(InsightOperation, metrics)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.WrapDomainError(shared.CodeInvalidInput, "metrics payload is not serializable", err)
	}

	cached, ok, err := cache.Lookup[*analytics.InsightSummary](ctx, s.cache, key)
	if err != nil {
		logger.For(ctx, s.logger).Warn("Insight cache lookup failed", zap.String("key", key), zap.Error(err))
	} else if ok && cached != nil {
		telemetry.SetOK(span)
		return cached, nil
	}

	summary := s.generate(ctx, metrics)
	span.SetAttributes(telemetry.AttrInsightKind.String(string(summary.Kind)))
	s.metrics.RecordInsight(ctx, string(summary.Kind))

	if summary.Kind != analytics.InsightGeneric {
		if err := s.cache.Put(ctx, key, summary, s.ttl); err != nil {
			logger.For(ctx, s.logger).Warn("Failed to cache insight summary", zap.String("key", key), zap.Error(err))
		}
	}

	telemetry.SetOK(span)
	return summary, nil
}

func (s *InsightService) generate(ctx context.Context, metrics map[string]any) *analytics.InsightSummary {
	log := logger.For(ctx, s.logger)

	payload, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		log.Warn("Failed to encode metrics for reasoning", zap.Error(err))
		return GenericSummary(metrics, s.now())
	}

	text, err := s.reasoner.Complete(ctx, reasoning.Prompt{
		System: insightSystemPrompt,
		User:   fmt.Sprintf("Metrics:\n%s", payload),
	})
	if err != nil {
		log.Warn("Reasoning service unavailable, using generic insights", zap.Error(err))
		return GenericSummary(metrics, s.now())
	}

	summary, ok := ParseInsights(text)
	if !ok {
		log.Warn("Reasoning answer had no usable insights, using generic insights",
			zap.Int("answer_length", len(text)),
		)
		return GenericSummary(metrics, s.now())
	}
	summary.GeneratedAt = s.now()

	if summary.Kind == analytics.InsightFallback {
		log.Info("Reasoning answer was not structured, extracted insights from text",
			zap.Int("insights", len(summary.Insights)),
			zap.Int("actions", len(summary.Actions)),
		)
	}
	return summary
}
