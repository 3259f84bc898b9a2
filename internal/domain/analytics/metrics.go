package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TopSuppliersLimit is the length of the supplier leaderboard
const TopSuppliersLimit = 5

// concentrationTopN is the number of suppliers counted for revenue concentration
const concentrationTopN = 3

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds a monetary amount to 2 decimal places
func RoundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// RoundPercent rounds a percentage to 1 decimal place
func RoundPercent(d decimal.Decimal) float64 {
	return d.Round(1).InexactFloat64()
}

// Percentage returns part/total*100 rounded to 1dp, or 0 when total is zero
func Percentage(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return RoundPercent(part.Div(total).Mul(hundred))
}

// PercentChange returns the relative change from previous to current in percent,
// rounded to 1dp. A zero previous value yields 0.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return RoundPercent(current.Sub(previous).Div(previous).Mul(hundred))
}

// revenueSummary holds unrounded revenue figures shared by the financial and trend groups
type revenueSummary struct {
	revenue      decimal.Decimal
	billedOrders int
	totalOrders  int
}

func (s revenueSummary) avgOrderValue() decimal.Decimal {
	if s.billedOrders == 0 {
		return decimal.Zero
	}
	return s.revenue.Div(decimal.NewFromInt(int64(s.billedOrders)))
}

// summarizeRevenue counts revenue over non-cancelled orders
func summarizeRevenue(orders []OrderRecord) revenueSummary {
	s := revenueSummary{revenue: decimal.Zero, totalOrders: len(orders)}
	for _, o := range orders {
		if o.IsCancelled() {
			continue
		}
		s.revenue = s.revenue.Add(o.TotalAmount)
		s.billedOrders++
	}
	return s
}

// ComputeFinancial builds the financial group from the orders of one window
func ComputeFinancial(orders []OrderRecord) FinancialMetrics {
	summary := summarizeRevenue(orders)
	m := FinancialMetrics{
		TotalRevenue:  RoundMoney(summary.revenue),
		TotalOrders:   summary.totalOrders,
		BilledOrders:  summary.billedOrders,
		AvgOrderValue: RoundMoney(summary.avgOrderValue()),
		TopSuppliers:  []SupplierRevenue{},
	}

	var minValue, maxValue decimal.Decimal
	first := true
	type supplierAgg struct {
		id, name string
		revenue  decimal.Decimal
		orders   int
	}
	bySupplier := make(map[string]*supplierAgg)

	for _, o := range orders {
		if o.IsCancelled() {
			continue
		}
		if first || o.TotalAmount.LessThan(minValue) {
			minValue = o.TotalAmount
		}
		if first || o.TotalAmount.GreaterThan(maxValue) {
			maxValue = o.TotalAmount
		}
		first = false

		agg, ok := bySupplier[o.SupplierID]
		if !ok {
			agg = &supplierAgg{id: o.SupplierID, name: o.SupplierName, revenue: decimal.Zero}
			bySupplier[o.SupplierID] = agg
		}
		agg.revenue = agg.revenue.Add(o.TotalAmount)
		agg.orders++
	}
	m.MinOrderValue = RoundMoney(minValue)
	m.MaxOrderValue = RoundMoney(maxValue)

	ranked := make([]*supplierAgg, 0, len(bySupplier))
	for _, agg := range bySupplier {
		ranked = append(ranked, agg)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].revenue.Equal(ranked[j].revenue) {
			return ranked[i].revenue.GreaterThan(ranked[j].revenue)
		}
		return ranked[i].id < ranked[j].id
	})

	topRevenue := decimal.Zero
	for i, agg := range ranked {
		if i < concentrationTopN {
			topRevenue = topRevenue.Add(agg.revenue)
		}
		if i < TopSuppliersLimit {
			m.TopSuppliers = append(m.TopSuppliers, SupplierRevenue{
				SupplierID:   agg.id,
				SupplierName: agg.name,
				Revenue:      RoundMoney(agg.revenue),
				OrderCount:   agg.orders,
				SharePct:     Percentage(agg.revenue, summary.revenue),
			})
		}
	}
	m.SupplierConcentrationPct = Percentage(topRevenue, summary.revenue)

	return m
}

// ComputeOperational builds the operational group. days is the window length.
func ComputeOperational(orders []OrderRecord, consumption []ConsumptionRecord, days float64) OperationalMetrics {
	var m OperationalMetrics

	type stockKey struct{ med, store string }
	latest := make(map[stockKey]ConsumptionRecord)
	stockSum := decimal.Zero
	for _, c := range consumption {
		m.TotalConsumption += c.QtyDispensed
		stockSum = stockSum.Add(decimal.NewFromInt(c.OnHand))
		k := stockKey{c.MedID, c.StoreID}
		if prev, ok := latest[k]; !ok || !c.Date.Before(prev.Date) {
			latest[k] = c
		}
	}
	for _, c := range latest {
		m.CurrentStock += c.OnHand
		if c.IsStockout() {
			m.StockoutItems++
		}
	}

	avgStock := decimal.Zero
	if len(consumption) > 0 {
		avgStock = stockSum.Div(decimal.NewFromInt(int64(len(consumption))))
	}
	m.AvgStock = avgStock.Round(2).InexactFloat64()

	total := decimal.NewFromInt(m.TotalConsumption)
	if days > 0 {
		m.DailyConsumptionRate = total.Div(decimal.NewFromFloat(days)).Round(2).InexactFloat64()
	}
	m.InventoryTurnover = total.Div(decimal.Max(avgStock, decimal.NewFromInt(1))).Round(2).InexactFloat64()

	var delivered, cancelled, delayed int
	delaySum := decimal.Zero
	for _, o := range orders {
		switch {
		case o.IsDelivered():
			delivered++
			if d, ok := o.DeliveryDelayDays(); ok {
				delaySum = delaySum.Add(decimal.NewFromFloat(d))
				delayed++
			}
		case o.IsCancelled():
			cancelled++
		}
	}
	totalOrders := decimal.NewFromInt(int64(len(orders)))
	m.FulfillmentRatePct = Percentage(decimal.NewFromInt(int64(delivered)), totalOrders)
	m.CancellationRatePct = Percentage(decimal.NewFromInt(int64(cancelled)), totalOrders)
	if delayed > 0 {
		m.AvgDeliveryDelayDays = RoundPercent(delaySum.Div(decimal.NewFromInt(int64(delayed))))
	}

	return m
}

// ComputeQuality builds the quality group
func ComputeQuality(orders []OrderRecord, consumption []ConsumptionRecord) QualityMetrics {
	var m QualityMetrics

	var delivered, cancelled, dated, onTime int64
	for _, o := range orders {
		switch {
		case o.IsDelivered():
			delivered++
			if d, ok := o.DeliveryDelayDays(); ok {
				dated++
				if d <= 0 {
					onTime++
				}
			}
		case o.IsCancelled():
			cancelled++
		}
	}
	m.OnTimeDeliveryRatePct = Percentage(decimal.NewFromInt(onTime), decimal.NewFromInt(dated))
	m.DeliverySuccessRatePct = Percentage(decimal.NewFromInt(delivered), decimal.NewFromInt(delivered+cancelled))

	var observed int64
	for _, c := range consumption {
		if !c.Censored {
			observed++
		}
		if c.IsStockout() {
			m.StockoutIncidents++
		}
	}
	m.TotalDemand = int64(len(consumption))
	m.StockAccuracyPct = Percentage(decimal.NewFromInt(observed), decimal.NewFromInt(m.TotalDemand))

	served := decimal.NewFromInt(m.TotalDemand - m.StockoutIncidents)
	m.ServiceLevelPct = RoundPercent(served.Div(decimal.NewFromInt(max(m.TotalDemand, 1))).Mul(hundred))

	return m
}

// ComputeTrends compares revenue, order count and average order value between windows
func ComputeTrends(current, previous []OrderRecord) TrendMetrics {
	cur := summarizeRevenue(current)
	prev := summarizeRevenue(previous)

	return TrendMetrics{
		RevenueChangePct: PercentChange(cur.revenue, prev.revenue),
		OrdersChangePct: PercentChange(
			decimal.NewFromInt(int64(cur.totalOrders)),
			decimal.NewFromInt(int64(prev.totalOrders)),
		),
		AvgOrderValueChangePct: PercentChange(cur.avgOrderValue(), prev.avgOrderValue()),
		PreviousRevenue:        RoundMoney(prev.revenue),
		PreviousOrders:         prev.totalOrders,
		PreviousAvgOrderValue:  RoundMoney(prev.avgOrderValue()),
	}
}
