package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/domain/shared"
	"github.com/medstock/backend/internal/interfaces/http/dto"
)

// KPIComputer computes the KPI snapshot for a reporting window
type KPIComputer interface {
	ComputeKPIs(ctx context.Context, timeRange analytics.TimeRange, filter analytics.Filter) (*analytics.KPIResult, error)
}

// InsightSummarizer turns a metrics payload into a quick-insight summary
type InsightSummarizer interface {
	Summarize(ctx context.Context, metrics map[string]any) (*analytics.InsightSummary, error)
}

// AnalyticsHandler serves KPI and quick-insight endpoints
type AnalyticsHandler struct {
	BaseHandler
	kpis     KPIComputer
	insights InsightSummarizer
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(kpis KPIComputer, insights InsightSummarizer) *AnalyticsHandler {
	return &AnalyticsHandler{kpis: kpis, insights: insights}
}

// GetKPIs godoc
// @ID           getAnalyticsKPIs
// @Summary      Compute procurement KPIs
// @Description  Returns financial, operational, quality and trend KPIs for a preset window. Results are cached for 15 minutes per window and filter.
// @Tags         analytics
// @Produce      json
// @Param        time_range  query string false "Reporting window" Enums(7d, 30d, 90d, 1y)
// @Param        supplier_id query string false "Supplier filter"
// @Param        store_id    query string false "Store filter"
// @Param        med_id      query string false "Medication filter"
// @Success      200 {object} dto.Response{data=analytics.KPIResult}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /analytics/kpis [get]
func (h *AnalyticsHandler) GetKPIs(c *gin.Context) {
	var q dto.KPIQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	tr, err := analytics.ParseTimeRange(q.TimeRange)
	if err != nil {
		h.HandleError(c, shared.WrapDomainError(shared.CodeInvalidInput, "Invalid time range", err))
		return
	}

	result, err := h.kpis.ComputeKPIs(c.Request.Context(), tr, q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// QuickInsights godoc
// @ID           postAnalyticsInsights
// @Summary      Summarize metrics into quick insights
// @Description  Asks the reasoning service for insights, actions and an impact statement. Falls back to a rule-based summary when the service is unavailable.
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        request body dto.QuickInsightsRequest true "Metrics payload"
// @Success      200 {object} dto.Response{data=analytics.InsightSummary}
// @Failure      400 {object} dto.Response
// @Router       /analytics/insights [post]
func (h *AnalyticsHandler) QuickInsights(c *gin.Context) {
	var req dto.QuickInsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.insights.Summarize(c.Request.Context(), req.Metrics)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
