package analysis

import (
	"time"

	"github.com/medstock/backend/internal/domain/analytics"
)

// StockHealthStatus classifies a medication at a store
type StockHealthStatus string

const (
	StockHealthStockout  StockHealthStatus = "stockout"
	StockHealthLow       StockHealthStatus = "low"
	StockHealthHealthy   StockHealthStatus = "healthy"
	StockHealthOverstock StockHealthStatus = "overstock"
)

// VelocityClass is the ABC class of an item by share of consumption
type VelocityClass string

const (
	VelocityA VelocityClass = "A"
	VelocityB VelocityClass = "B"
	VelocityC VelocityClass = "C"
)

// Result is the immutable output of a completed analysis job
type Result struct {
	AnalysisType    Type                      `json:"analysis_type"`
	KPIs            *analytics.KPIResult      `json:"kpis"`
	StockHealth     []StockHealth             `json:"stock_health,omitempty"`
	Suppliers       []SupplierScore           `json:"suppliers,omitempty"`
	Forecast        []ReorderSuggestion       `json:"forecast,omitempty"`
	Slotting        []SlottingAssignment      `json:"slotting,omitempty"`
	PurchaseOrders  []PurchaseOrderDraft      `json:"purchase_orders,omitempty"`
	Recommendations *analytics.InsightSummary `json:"recommendations"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// StockHealth is the stock position of one medication at one store
type StockHealth struct {
	MedID         string            `json:"med_id"`
	StoreID       string            `json:"store_id"`
	OnHand        int64             `json:"on_hand"`
	AvgDailyUsage float64           `json:"avg_daily_usage"`
	DaysOfCover   float64           `json:"days_of_cover"`
	Status        StockHealthStatus `json:"status"`
}

// SupplierScore rates delivery performance of one supplier
type SupplierScore struct {
	SupplierID          string  `json:"supplier_id"`
	SupplierName        string  `json:"supplier_name"`
	Orders              int     `json:"orders"`
	OnTimeRatePct       float64 `json:"on_time_rate_pct"`
	CancellationRatePct float64 `json:"cancellation_rate_pct"`
	AvgDelayDays        float64 `json:"avg_delay_days"`
	Score               float64 `json:"score"` // 0..100
}

// ReorderSuggestion is a demand forecast with a reorder recommendation
type ReorderSuggestion struct {
	MedID             string  `json:"med_id"`
	StoreID           string  `json:"store_id"`
	AvgDailyDemand    float64 `json:"avg_daily_demand"`
	DemandStdDev      float64 `json:"demand_std_dev"`
	ReorderPoint      int64   `json:"reorder_point"`
	SafetyStock       int64   `json:"safety_stock"`
	OnHand            int64   `json:"on_hand"`
	SuggestedQuantity int64   `json:"suggested_quantity"`
}

// SlottingAssignment places an item by velocity class
type SlottingAssignment struct {
	MedID       string        `json:"med_id"`
	Consumption int64         `json:"consumption"`
	SharePct    float64       `json:"share_pct"`
	Class       VelocityClass `json:"class"`
	Zone        string        `json:"zone"`
}

// PurchaseOrderDraft groups reorder lines for one supplier
type PurchaseOrderDraft struct {
	SupplierID   string              `json:"supplier_id"`
	SupplierName string              `json:"supplier_name"`
	Lines        []PurchaseOrderLine `json:"lines"`
	TotalUnits   int64               `json:"total_units"`
}

// PurchaseOrderLine is one medication on a draft purchase order
type PurchaseOrderLine struct {
	MedID    string `json:"med_id"`
	StoreID  string `json:"store_id"`
	Quantity int64  `json:"quantity"`
}
