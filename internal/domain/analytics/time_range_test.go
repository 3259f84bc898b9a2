package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in   string
		want TimeRange
		days int
	}{
		{"", TimeRange30Days, 30},
		{"7d", TimeRange7Days, 7},
		{"30d", TimeRange30Days, 30},
		{"90d", TimeRange90Days, 90},
		{"1y", TimeRange1Year, 365},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tr, err := ParseTimeRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr)
			assert.Equal(t, tt.days, tr.Days())
		})
	}

	_, err := ParseTimeRange("14d")
	assert.Error(t, err)
}

func TestTimeRange_Window(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	window := TimeRange7Days.Window(now)
	assert.Equal(t, time.Date(2026, 3, 24, 12, 0, 0, 0, time.UTC), window.Start)
	assert.Equal(t, now, window.End)
	assert.Equal(t, 7.0, window.Days())

	prev := window.Previous()
	assert.Equal(t, time.Date(2026, 3, 17, 12, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, window.Start, prev.End)

	assert.True(t, window.Contains(window.Start))
	assert.False(t, window.Contains(window.End))
	assert.False(t, prev.Contains(window.Start))
}

func TestFilter(t *testing.T) {
	f := Filter{SupplierID: "A", StoreID: "s1"}

	assert.Equal(t, map[string]any{"supplier_id": "A", "store_id": "s1"}, f.Params())
	assert.Empty(t, Filter{}.Params())

	assert.True(t, f.MatchesOrder(OrderRecord{SupplierID: "A"}))
	assert.False(t, f.MatchesOrder(OrderRecord{SupplierID: "B"}))
	assert.True(t, f.MatchesConsumption(ConsumptionRecord{StoreID: "s1", MedID: "any"}))
	assert.False(t, f.MatchesConsumption(ConsumptionRecord{StoreID: "s2"}))
}

func TestOrderRecord_DeliveryDelayDays(t *testing.T) {
	o := OrderRecord{}
	_, ok := o.DeliveryDelayDays()
	assert.False(t, ok)

	o.RequestedDeliveryDate, o.ActualDeliveryDate = day(3), day(1)
	d, ok := o.DeliveryDelayDays()
	assert.True(t, ok)
	assert.Equal(t, -2.0, d)
}
