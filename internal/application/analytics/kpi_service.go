// Package analytics computes cached KPI snapshots and quick insight summaries.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/domain/shared"
	"github.com/medstock/backend/internal/infrastructure/cache"
	"github.com/medstock/backend/internal/infrastructure/logger"
	"github.com/medstock/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// KPIOperation is the fingerprint operation name of KPI snapshots
const KPIOperation = "advanced_kpis"

// DefaultKPITTL is how long a KPI snapshot is served from cache
const DefaultKPITTL = 15 * time.Minute

// KPIService computes KPI snapshots over the purchase order and consumption records
type KPIService struct {
	orders      analytics.OrderRepository
	consumption analytics.ConsumptionRepository
	cache       cache.Store
	ttl         time.Duration
	metrics     *telemetry.AnalyticsMetrics
	logger      *zap.Logger
	now         func() time.Time
	inflight    singleflight.Group
}

// KPIOption configures a KPIService
type KPIOption func(*KPIService)

// WithKPITTL overrides DefaultKPITTL
func WithKPITTL(ttl time.Duration) KPIOption {
	return func(s *KPIService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKPIMetrics records computation counts and durations
func WithKPIMetrics(m *telemetry.AnalyticsMetrics) KPIOption {
	return func(s *KPIService) {
		s.metrics = m
	}
}

// WithKPIClock overrides the time source used for windows and metadata
func WithKPIClock(now func() time.Time) KPIOption {
	return func(s *KPIService) {
		s.now = now
	}
}

// NewKPIService creates a new KPIService
func NewKPIService(
	orders analytics.OrderRepository,
	consumption analytics.ConsumptionRepository,
	store cache.Store,
	logger *zap.Logger,
	opts ...KPIOption,
) *KPIService {
	s := &KPIService{
		orders:      orders,
		consumption: consumption,
		cache:       store,
		ttl:         DefaultKPITTL,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeKPIs returns the KPI snapshot for timeRange and filter. An empty
// timeRange selects analytics.DefaultTimeRange. Snapshots are cached under
// their fingerprint; failed computations are not.
func (s *KPIService) ComputeKPIs(ctx context.Context, timeRange analytics.TimeRange, filter analytics.Filter) (*analytics.KPIResult, error) {
	tr, err := analytics.ParseTimeRange(string(timeRange))
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInvalidInput, "Invalid time range", err)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "analytics", "compute_kpis",
		telemetry.AttrTimeRange.String(string(tr)),
	)
	defer span.End()

	key, err := cache.Fingerprint(KPIOperation, map[string]any{
		"time_range": string(tr),
		"filters":    filter.Params(),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.WrapDomainError(shared.CodeInvalidInput, "Invalid KPI parameters", err)
	}

	if cached, ok := s.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		telemetry.SetOK(span)
		return cached, nil
	}

	// Identical misses share one computation. It runs detached from the first
	// caller so one cancelled request does not fail the others.
	ch := s.inflight.DoChan(key, func() (any, error) {
		return s.computeAndStore(context.WithoutCancel(ctx), key, tr, filter)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			telemetry.RecordError(span, res.Err)
			return nil, res.Err
		}
		telemetry.SetOK(span)
		return res.Val.(*analytics.KPIResult), nil
	case <-ctx.Done():
		telemetry.RecordError(span, ctx.Err())
		return nil, ctx.Err()
	}
}

func (s *KPIService) lookup(ctx context.Context, key string) (*analytics.KPIResult, bool) {
	cached, ok, err := cache.Lookup[*analytics.KPIResult](ctx, s.cache, key)
	if err != nil {
		logger.For(ctx, s.logger).Warn("KPI cache lookup failed, recomputing", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return cached, ok && cached != nil
}

func (s *KPIService) computeAndStore(ctx context.Context, key string, tr analytics.TimeRange, filter analytics.Filter) (*analytics.KPIResult, error) {
	start := time.Now()
	result, err := s.compute(ctx, tr, filter)
	if err != nil {
		logger.For(ctx, s.logger).Error("KPI computation failed",
			zap.String("time_range", string(tr)),
			zap.Error(err),
		)
		return nil, shared.WrapDomainError(shared.CodeComputationFailed, "Failed to compute KPIs", err)
	}
	elapsed := time.Since(start)
	s.metrics.RecordKPIComputation(ctx, string(tr), elapsed)

	if err := s.cache.Put(ctx, key, result, s.ttl); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to cache KPI snapshot", zap.String("key", key), zap.Error(err))
	}

	logger.For(ctx, s.logger).Info("KPIs computed",
		zap.String("time_range", string(tr)),
		zap.Int("orders", result.KPIs.Financial.TotalOrders),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// compute loads both windows concurrently and derives the four groups
func (s *KPIService) compute(ctx context.Context, tr analytics.TimeRange, filter analytics.Filter) (*analytics.KPIResult, error) {
	now := s.now()
	window := tr.Window(now)
	previous := window.Previous()

	var (
		orders      []analytics.OrderRecord
		prevOrders  []analytics.OrderRecord
		consumption []analytics.ConsumptionRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.FindByPeriod(gctx, window, filter)
		return err
	})
	g.Go(func() error {
		var err error
		prevOrders, err = s.orders.FindByPeriod(gctx, previous, filter)
		return err
	})
	g.Go(func() error {
		var err error
		consumption, err = s.consumption.FindByPeriod(gctx, window, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return BuildKPIResult(tr, filter, window, now, orders, prevOrders, consumption)
}

// BuildKPIResult assembles a snapshot from already loaded records
func BuildKPIResult(
	tr analytics.TimeRange,
	filter analytics.Filter,
	window analytics.Period,
	now time.Time,
	orders, prevOrders []analytics.OrderRecord,
	consumption []analytics.ConsumptionRecord,
) (*analytics.KPIResult, error) {
	if !window.End.After(window.Start) {
		return nil, errors.New("empty reporting window")
	}
	for _, o := range orders {
		if o.TotalAmount.IsNegative() {
			return nil, fmt.Errorf("order %s has negative total amount", o.POID)
		}
	}

	return &analytics.KPIResult{
		KPIs: analytics.KPIGroups{
			Financial:   analytics.ComputeFinancial(orders),
			Operational: analytics.ComputeOperational(orders, consumption, window.Days()),
			Quality:     analytics.ComputeQuality(orders, consumption),
		},
		Trends: analytics.ComputeTrends(orders, prevOrders),
		Metadata: analytics.KPIMetadata{
			TimeRange:    tr,
			StartDate:    window.Start.Format(time.DateOnly),
			EndDate:      window.End.Format(time.DateOnly),
			Filters:      filter,
			CalculatedAt: now,
		},
	}, nil
}
