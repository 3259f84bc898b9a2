package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/medstock/backend/internal/domain/analytics"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Thresholds that trigger specific generic advice
const (
	lowFulfillmentPct  = 90.0
	lowOnTimePct       = 85.0
	highCancelPct      = 10.0
	highConcentration  = 60.0
	revenueSwingPct    = 10.0
	maxGenericInsights = 4
)

var printer = message.NewPrinter(language.English)

// GenericSummary builds insights locally from whatever well-known figures the
// metrics payload carries. Keys are matched on their last path segment, so
// both {"total_revenue": 1} and {"kpis": {"financial": {"total_revenue": 1}}}
// are understood. It always returns at least one insight and one action.
func GenericSummary(metrics map[string]any, now time.Time) *analytics.InsightSummary {
	figures := flattenNumbers(metrics)
	s := &analytics.InsightSummary{
		Kind:        analytics.InsightGeneric,
		Insights:    []string{},
		Actions:     []string{},
		GeneratedAt: now,
	}

	if v, ok := figures["total_revenue"]; ok {
		line := printer.Sprintf("Purchase spend in the period was %.2f", v)
		if orders, ok := figures["total_orders"]; ok {
			line += printer.Sprintf(" across %d orders", int64(orders))
		}
		s.Insights = append(s.Insights, line+".")
	}
	if v, ok := figures["revenue_change_pct"]; ok && v != 0 {
		direction := "up"
		if v < 0 {
			direction = "down"
		}
		s.Insights = append(s.Insights, printer.Sprintf("Spend is %s %.1f%% on the previous period.", direction, abs(v)))
		if abs(v) >= revenueSwingPct {
			s.Actions = append(s.Actions, "Review demand drivers behind the spend swing before the next ordering cycle.")
		}
	}
	if v, ok := figures["fulfillment_rate_pct"]; ok {
		s.Insights = append(s.Insights, printer.Sprintf("Fulfillment rate is %.1f%%.", v))
		if v < lowFulfillmentPct {
			s.Actions = append(s.Actions, "Follow up on undelivered purchase orders to lift the fulfillment rate.")
		}
	}
	if v, ok := figures["on_time_delivery_rate_pct"]; ok && v < lowOnTimePct {
		s.Insights = append(s.Insights, printer.Sprintf("Only %.1f%% of deliveries arrived on time.", v))
		s.Actions = append(s.Actions, "Raise late deliveries with the affected suppliers or add lead-time buffer.")
	}
	if v, ok := figures["cancellation_rate_pct"]; ok && v >= highCancelPct {
		s.Actions = append(s.Actions, printer.Sprintf("Investigate the %.1f%% order cancellation rate.", v))
	}
	if v, ok := figures["stockout_items"]; ok && v > 0 {
		s.Insights = append(s.Insights, printer.Sprintf("%d items are currently out of stock.", int64(v)))
		s.Actions = append(s.Actions, "Expedite replenishment for out-of-stock items.")
	}
	if v, ok := figures["supplier_concentration_pct"]; ok && v >= highConcentration {
		s.Actions = append(s.Actions, printer.Sprintf("Top suppliers hold %.1f%% of spend; qualify alternates to reduce dependency.", v))
	}

	if len(s.Insights) > maxGenericInsights {
		s.Insights = s.Insights[:maxGenericInsights]
	}
	if len(s.Insights) == 0 {
		s.Insights = append(s.Insights, printer.Sprintf("Received %d metrics; detailed analysis is temporarily unavailable.", len(figures)))
	}
	if len(s.Actions) == 0 {
		s.Actions = append(s.Actions, "Keep monitoring stock levels and supplier performance.")
	}
	s.Impact = "Generated locally from the supplied metrics; figures are not interpreted in depth."
	return s
}

// flattenNumbers collects numeric leaves keyed by their last path segment.
// When a segment repeats, the shallowest occurrence wins, then the
// lexically first path.
func flattenNumbers(metrics map[string]any) map[string]float64 {
	type leaf struct {
		path  string
		depth int
		value float64
	}
	var leaves []leaf

	var walk func(prefix string, depth int, v any)
	walk = func(prefix string, depth int, v any) {
		switch t := v.(type) {
		case map[string]any:
			for k, child := range t {
				walk(prefix+"."+k, depth+1, child)
			}
		case float64:
			leaves = append(leaves, leaf{prefix, depth, t})
		case float32:
			leaves = append(leaves, leaf{prefix, depth, float64(t)})
		case int:
			leaves = append(leaves, leaf{prefix, depth, float64(t)})
		case int64:
			leaves = append(leaves, leaf{prefix, depth, float64(t)})
		}
	}
	for k, v := range metrics {
		walk(k, 0, v)
	}

	sort.Slice(leaves, func(i, j int) bool {
		if leaves[i].depth != leaves[j].depth {
			return leaves[i].depth < leaves[j].depth
		}
		return leaves[i].path < leaves[j].path
	})

	out := make(map[string]float64, len(leaves))
	for _, l := range leaves {
		name := l.path
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if _, seen := out[name]; !seen {
			out[name] = l.value
		}
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
