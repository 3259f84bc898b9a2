package analysis

import (
	"context"
	"fmt"

	"github.com/medstock/backend/internal/domain/analysis"
	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/infrastructure/cache"
	"github.com/medstock/backend/internal/infrastructure/logger"
	"github.com/medstock/backend/internal/infrastructure/scheduler"
	"github.com/medstock/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage labels reported at each checkpoint
const (
	StageGathering       = "Gathering inventory data"
	StageStockLevels     = "Analyzing stock levels"
	StageSuppliers       = "Evaluating supplier performance"
	StageForecasting     = "Forecasting demand"
	StageRecommendations = "Generating recommendations"
)

// OperationPrefix prefixes the fingerprint operation of cached results
const OperationPrefix = "analysis:"

type checkpoint struct {
	progress int
	stage    string
}

var checkpoints = []checkpoint{
	{10, StageGathering},
	{30, StageStockLevels},
	{50, StageSuppliers},
	{70, StageForecasting},
	{90, StageRecommendations},
}

// pipeline is one analysis run. Each step reports its checkpoint before doing its work.
type pipeline struct {
	service      *Service
	analysisType analysis.Type
	timeRange    analytics.TimeRange
	filter       analytics.Filter

	window      analytics.Period
	orders      []analytics.OrderRecord
	consumption []analytics.ConsumptionRecord
	result      *analysis.Result
}

func (p *pipeline) run(ctx context.Context, progress scheduler.ProgressFunc) (*analysis.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "analysis", "run",
		telemetry.AttrAnalysisType.String(string(p.analysisType)),
		telemetry.AttrTimeRange.String(string(p.timeRange)),
	)
	defer span.End()

	s := p.service
	log := logger.For(ctx, s.logger)

	key, err := cache.Fingerprint(OperationPrefix+string(p.analysisType), map[string]any{
		"time_range": string(p.timeRange),
		"filters":    p.filter.Params(),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	cached, ok, err := cache.Lookup[*analysis.Result](ctx, s.cache, key)
	if err != nil {
		log.Warn("Analysis cache lookup failed, running analysis", zap.String("key", key), zap.Error(err))
	}
	if ok && cached != nil {
		// Identical input ran recently; walk the checkpoints so pollers see the usual stages.
		for _, c := range checkpoints {
			if err := progress(c.progress, c.stage); err != nil {
				return nil, err
			}
		}
		log.Info("Analysis served from cache", zap.String("key", key))
		telemetry.SetOK(span)
		return cached, nil
	}

	steps := []func(context.Context) error{
		p.gather,
		p.stockLevels,
		p.suppliers,
		p.forecast,
		p.recommend,
	}
	for i, step := range steps {
		if err := progress(checkpoints[i].progress, checkpoints[i].stage); err != nil {
			return nil, err
		}
		if err := step(ctx); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("%s: %w", checkpoints[i].stage, err)
		}
	}

	p.result.GeneratedAt = s.now()
	if err := s.cache.Put(ctx, key, p.result, s.ttl); err != nil {
		log.Warn("Failed to cache analysis result", zap.String("key", key), zap.Error(err))
	}
	telemetry.SetOK(span)
	return p.result, nil
}

func (p *pipeline) gather(ctx context.Context) error {
	s := p.service
	p.window = p.timeRange.Window(s.now())
	p.result = &analysis.Result{AnalysisType: p.analysisType}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kpis, err := s.kpis.ComputeKPIs(gctx, p.timeRange, p.filter)
		p.result.KPIs = kpis
		return err
	})
	g.Go(func() error {
		var err error
		p.orders, err = s.orders.FindByPeriod(gctx, p.window, p.filter)
		return err
	})
	g.Go(func() error {
		var err error
		p.consumption, err = s.consumption.FindByPeriod(gctx, p.window, p.filter)
		return err
	})
	return g.Wait()
}

func (p *pipeline) stockLevels(context.Context) error {
	p.result.StockHealth = analysis.AssessStockHealth(p.consumption, p.window.Days())
	return nil
}

func (p *pipeline) suppliers(context.Context) error {
	if p.analysisType.IncludesSuppliers() {
		p.result.Suppliers = analysis.ScoreSuppliers(p.orders)
	}
	return nil
}

func (p *pipeline) forecast(context.Context) error {
	if p.analysisType.IncludesForecast() {
		p.result.Forecast = analysis.ForecastReorders(p.consumption, p.window.Days())
	}
	if p.analysisType.IncludesSlotting() {
		p.result.Slotting = analysis.ClassifyVelocity(p.consumption)
	}
	return nil
}

func (p *pipeline) recommend(ctx context.Context) error {
	if p.analysisType.IncludesPurchaseOrders() {
		p.result.PurchaseOrders = analysis.DraftPurchaseOrders(p.result.Forecast, p.result.Suppliers)
	}

	summary, err := p.service.summarizer.Summarize(ctx, recommendationMetrics(p.result))
	if err != nil {
		return err
	}
	p.result.Recommendations = summary
	return nil
}

// recommendationMetrics condenses a result into the figures the summarizer reads
func recommendationMetrics(r *analysis.Result) map[string]any {
	m := map[string]any{
		"analysis_type": string(r.AnalysisType),
	}
	if r.KPIs != nil {
		k := r.KPIs.KPIs
		m["total_revenue"] = k.Financial.TotalRevenue
		m["total_orders"] = k.Financial.TotalOrders
		m["supplier_concentration_pct"] = k.Financial.SupplierConcentrationPct
		m["fulfillment_rate_pct"] = k.Operational.FulfillmentRatePct
		m["cancellation_rate_pct"] = k.Operational.CancellationRatePct
		m["on_time_delivery_rate_pct"] = k.Quality.OnTimeDeliveryRatePct
		m["service_level_pct"] = k.Quality.ServiceLevelPct
		m["revenue_change_pct"] = r.KPIs.Trends.RevenueChangePct
	}

	var stockouts, low, overstock int
	for _, h := range r.StockHealth {
		switch h.Status {
		case analysis.StockHealthStockout:
			stockouts++
		case analysis.StockHealthLow:
			low++
		case analysis.StockHealthOverstock:
			overstock++
		}
	}
	m["stockout_items"] = stockouts
	m["low_stock_items"] = low
	m["overstock_items"] = overstock

	if len(r.Suppliers) > 0 {
		m["best_supplier_score"] = r.Suppliers[0].Score
		m["worst_supplier_score"] = r.Suppliers[len(r.Suppliers)-1].Score
	}
	if r.Forecast != nil {
		reorders := 0
		for _, f := range r.Forecast {
			if f.SuggestedQuantity > 0 {
				reorders++
			}
		}
		m["reorder_suggestions"] = reorders
	}
	if r.PurchaseOrders != nil {
		m["draft_purchase_orders"] = len(r.PurchaseOrders)
	}
	return m
}
