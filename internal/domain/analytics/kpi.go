package analytics

import "time"

// KPIResult is an immutable snapshot of computed KPIs for one time range and filter
type KPIResult struct {
	KPIs     KPIGroups    `json:"kpis"`
	Trends   TrendMetrics `json:"trends"`
	Metadata KPIMetadata  `json:"metadata"`
}

// KPIGroups holds the point-in-time metric groups
type KPIGroups struct {
	Financial   FinancialMetrics   `json:"financial"`
	Operational OperationalMetrics `json:"operational"`
	Quality     QualityMetrics     `json:"quality"`
}

// FinancialMetrics summarizes purchase spend. Money is rounded to 2dp,
// percentages to 1dp.
type FinancialMetrics struct {
	TotalRevenue             float64           `json:"total_revenue"`
	TotalOrders              int               `json:"total_orders"`
	BilledOrders             int               `json:"billed_orders"`
	AvgOrderValue            float64           `json:"avg_order_value"`
	MinOrderValue            float64           `json:"min_order_value"`
	MaxOrderValue            float64           `json:"max_order_value"`
	SupplierConcentrationPct float64           `json:"supplier_concentration_pct"` // top 3 share of revenue
	TopSuppliers             []SupplierRevenue `json:"top_suppliers"`
}

// SupplierRevenue is one row of the supplier leaderboard
type SupplierRevenue struct {
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	Revenue      float64 `json:"revenue"`
	OrderCount   int     `json:"order_count"`
	SharePct     float64 `json:"share_pct"`
}

// OperationalMetrics summarizes stock and order flow
type OperationalMetrics struct {
	CurrentStock         int64   `json:"current_stock"`
	AvgStock             float64 `json:"avg_stock"`
	TotalConsumption     int64   `json:"total_consumption"`
	DailyConsumptionRate float64 `json:"daily_consumption_rate"`
	InventoryTurnover    float64 `json:"inventory_turnover"` // total_consumption / max(avg_stock, 1)
	StockoutItems        int     `json:"stockout_items"`
	FulfillmentRatePct   float64 `json:"fulfillment_rate_pct"`
	CancellationRatePct  float64 `json:"cancellation_rate_pct"`
	AvgDeliveryDelayDays float64 `json:"avg_delivery_delay_days"`
}

// QualityMetrics summarizes delivery reliability and service level
type QualityMetrics struct {
	OnTimeDeliveryRatePct  float64 `json:"on_time_delivery_rate_pct"`
	DeliverySuccessRatePct float64 `json:"delivery_success_rate_pct"`
	StockAccuracyPct       float64 `json:"stock_accuracy_pct"` // non-censored share of observations
	ServiceLevelPct        float64 `json:"service_level_pct"`
	TotalDemand            int64   `json:"total_demand"`
	StockoutIncidents      int64   `json:"stockout_incidents"`
}

// TrendMetrics compares the window with the immediately preceding one.
// A change is 0 when the previous value is zero.
type TrendMetrics struct {
	RevenueChangePct       float64 `json:"revenue_change_pct"`
	OrdersChangePct        float64 `json:"orders_change_pct"`
	AvgOrderValueChangePct float64 `json:"avg_order_value_change_pct"`
	PreviousRevenue        float64 `json:"previous_revenue"`
	PreviousOrders         int     `json:"previous_orders"`
	PreviousAvgOrderValue  float64 `json:"previous_avg_order_value"`
}

// KPIMetadata describes how the snapshot was produced
type KPIMetadata struct {
	TimeRange    TimeRange `json:"time_range"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Filters      Filter    `json:"filters"`
	CalculatedAt time.Time `json:"calculated_at"`
}
