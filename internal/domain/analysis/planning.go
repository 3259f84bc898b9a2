package analysis

import (
	"math"
	"sort"

	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// Planning parameters used by the forecast and stock health rules
const (
	LowCoverDays       = 7.0
	OverstockCoverDays = 90.0
	LeadTimeDays       = 7.0
	ReviewPeriodDays   = 14.0
	ServiceLevelZ      = 1.65 // ~95% cycle service level

	classAThreshold = 80.0
	classBThreshold = 95.0
)

var zones = map[VelocityClass]string{
	VelocityA: "forward-pick",
	VelocityB: "mid-rack",
	VelocityC: "reserve",
}

type itemKey struct {
	med, store string
}

type itemSeries struct {
	key       itemKey
	total     int64
	daily     []float64
	latest    analytics.ConsumptionRecord
	hasLatest bool
}

func groupByItem(consumption []analytics.ConsumptionRecord) []*itemSeries {
	byKey := make(map[itemKey]*itemSeries)
	for _, c := range consumption {
		k := itemKey{c.MedID, c.StoreID}
		s, ok := byKey[k]
		if !ok {
			s = &itemSeries{key: k}
			byKey[k] = s
		}
		s.total += c.QtyDispensed
		s.daily = append(s.daily, float64(c.QtyDispensed))
		if !s.hasLatest || !c.Date.Before(s.latest.Date) {
			s.latest = c
			s.hasLatest = true
		}
	}

	items := make([]*itemSeries, 0, len(byKey))
	for _, s := range byKey {
		items = append(items, s)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].key.med != items[j].key.med {
			return items[i].key.med < items[j].key.med
		}
		return items[i].key.store < items[j].key.store
	})
	return items
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// AssessStockHealth classifies every medication/store pair by days of cover
// over a window of the given length in days.
func AssessStockHealth(consumption []analytics.ConsumptionRecord, days float64) []StockHealth {
	items := groupByItem(consumption)
	out := make([]StockHealth, 0, len(items))
	for _, s := range items {
		h := StockHealth{
			MedID:   s.key.med,
			StoreID: s.key.store,
			OnHand:  s.latest.OnHand,
		}
		if days > 0 {
			h.AvgDailyUsage = round2(float64(s.total) / days)
		}
		if h.AvgDailyUsage > 0 {
			h.DaysOfCover = round2(float64(h.OnHand) / h.AvgDailyUsage)
		}

		switch {
		case h.OnHand <= 0:
			h.Status = StockHealthStockout
		case h.AvgDailyUsage == 0, h.DaysOfCover > OverstockCoverDays:
			h.Status = StockHealthOverstock
		case h.DaysOfCover < LowCoverDays:
			h.Status = StockHealthLow
		default:
			h.Status = StockHealthHealthy
		}
		out = append(out, h)
	}
	return out
}

// ScoreSuppliers rates suppliers by on-time delivery and cancellations.
// Score = 0.6 x on-time rate + 0.4 x (100 - cancellation rate), minus two
// points per day of average delay, clamped to 0..100. Sorted best first.
func ScoreSuppliers(orders []analytics.OrderRecord) []SupplierScore {
	type agg struct {
		score                    SupplierScore
		cancelled, dated, onTime int
		delaySum                 float64
	}
	bySupplier := make(map[string]*agg)
	for _, o := range orders {
		a, ok := bySupplier[o.SupplierID]
		if !ok {
			a = &agg{score: SupplierScore{SupplierID: o.SupplierID, SupplierName: o.SupplierName}}
			bySupplier[o.SupplierID] = a
		}
		a.score.Orders++
		if o.IsCancelled() {
			a.cancelled++
		}
		if d, ok := o.DeliveryDelayDays(); ok && o.IsDelivered() {
			a.dated++
			a.delaySum += d
			if d <= 0 {
				a.onTime++
			}
		}
	}

	out := make([]SupplierScore, 0, len(bySupplier))
	for _, a := range bySupplier {
		s := a.score
		s.OnTimeRatePct = analytics.Percentage(decimal.NewFromInt(int64(a.onTime)), decimal.NewFromInt(int64(a.dated)))
		s.CancellationRatePct = analytics.Percentage(decimal.NewFromInt(int64(a.cancelled)), decimal.NewFromInt(int64(s.Orders)))
		if a.dated > 0 {
			s.AvgDelayDays = decimal.NewFromFloat(a.delaySum / float64(a.dated)).Round(1).InexactFloat64()
		}
		score := 0.6*s.OnTimeRatePct + 0.4*(100-s.CancellationRatePct) - 2*math.Max(s.AvgDelayDays, 0)
		s.Score = decimal.NewFromFloat(math.Min(math.Max(score, 0), 100)).Round(1).InexactFloat64()
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].SupplierID < out[j].SupplierID
	})
	return out
}

// ForecastReorders estimates average daily demand per medication/store and
// derives a reorder point with safety stock over LeadTimeDays. Suggested
// quantity tops stock up to cover lead time plus ReviewPeriodDays when stock
// is at or below the reorder point.
func ForecastReorders(consumption []analytics.ConsumptionRecord, days float64) []ReorderSuggestion {
	items := groupByItem(consumption)
	out := make([]ReorderSuggestion, 0, len(items))
	for _, s := range items {
		var avg float64
		if days > 0 {
			avg = float64(s.total) / days
		}
		std := stdDev(s.daily)
		safety := int64(math.Ceil(ServiceLevelZ * std * math.Sqrt(LeadTimeDays)))
		reorderPoint := int64(math.Ceil(avg*LeadTimeDays)) + safety

		r := ReorderSuggestion{
			MedID:          s.key.med,
			StoreID:        s.key.store,
			AvgDailyDemand: round2(avg),
			DemandStdDev:   round2(std),
			ReorderPoint:   reorderPoint,
			SafetyStock:    safety,
			OnHand:         s.latest.OnHand,
		}
		if r.OnHand <= reorderPoint && avg > 0 {
			target := reorderPoint + int64(math.Ceil(avg*ReviewPeriodDays))
			r.SuggestedQuantity = target - r.OnHand
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuggestedQuantity > out[j].SuggestedQuantity
	})
	return out
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// ClassifyVelocity assigns ABC classes by cumulative share of consumption:
// items whose preceding cumulative share is under 80% are A, under 95% B,
// the rest C. Each class maps to a warehouse zone.
func ClassifyVelocity(consumption []analytics.ConsumptionRecord) []SlottingAssignment {
	byMed := make(map[string]int64)
	var total int64
	for _, c := range consumption {
		byMed[c.MedID] += c.QtyDispensed
		total += c.QtyDispensed
	}

	out := make([]SlottingAssignment, 0, len(byMed))
	for med, qty := range byMed {
		out = append(out, SlottingAssignment{MedID: med, Consumption: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Consumption != out[j].Consumption {
			return out[i].Consumption > out[j].Consumption
		}
		return out[i].MedID < out[j].MedID
	})

	totalDec := decimal.NewFromInt(total)
	var cumulative float64
	for i := range out {
		share := analytics.Percentage(decimal.NewFromInt(out[i].Consumption), totalDec)
		switch {
		case cumulative < classAThreshold:
			out[i].Class = VelocityA
		case cumulative < classBThreshold:
			out[i].Class = VelocityB
		default:
			out[i].Class = VelocityC
		}
		out[i].SharePct = share
		out[i].Zone = zones[out[i].Class]
		if total > 0 {
			cumulative += float64(out[i].Consumption) / float64(total) * 100
		}
	}
	return out
}

// DraftPurchaseOrders collects positive reorder suggestions into a draft for
// the best scored supplier. Without supplier history the draft is unassigned.
func DraftPurchaseOrders(suggestions []ReorderSuggestion, suppliers []SupplierScore) []PurchaseOrderDraft {
	draft := PurchaseOrderDraft{SupplierID: "unassigned", SupplierName: "Unassigned"}
	if len(suppliers) > 0 {
		draft.SupplierID = suppliers[0].SupplierID
		draft.SupplierName = suppliers[0].SupplierName
	}
	for _, s := range suggestions {
		if s.SuggestedQuantity <= 0 {
			continue
		}
		draft.Lines = append(draft.Lines, PurchaseOrderLine{
			MedID:    s.MedID,
			StoreID:  s.StoreID,
			Quantity: s.SuggestedQuantity,
		})
		draft.TotalUnits += s.SuggestedQuantity
	}
	if len(draft.Lines) == 0 {
		return nil
	}
	return []PurchaseOrderDraft{draft}
}
