package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) *time.Time {
	t := base.AddDate(0, 0, n)
	return &t
}

func order(id, supplier string, status OrderStatus, amount string) OrderRecord {
	return OrderRecord{
		POID:         id,
		SupplierID:   supplier,
		SupplierName: "Supplier " + supplier,
		Status:       status,
		TotalAmount:  decimal.RequireFromString(amount),
		CreatedAt:    base,
	}
}

func sampleOrders() []OrderRecord {
	early := order("PO-1", "A", OrderStatusDelivered, "100.00")
	early.RequestedDeliveryDate, early.ActualDeliveryDate = day(5), day(4)

	late := order("PO-2", "A", OrderStatusDelivered, "50.50")
	late.RequestedDeliveryDate, late.ActualDeliveryDate = day(5), day(7)

	return []OrderRecord{
		early,
		late,
		order("PO-3", "B", OrderStatusCancelled, "200.00"),
		order("PO-4", "B", OrderStatusPending, "149.50"),
		order("PO-5", "C", OrderStatusShipped, "10.00"),
		order("PO-6", "D", OrderStatusApproved, "40.00"),
	}
}

func sampleConsumption() []ConsumptionRecord {
	return []ConsumptionRecord{
		{MedID: "m1", StoreID: "s1", Date: *day(1), QtyDispensed: 5, OnHand: 10},
		{MedID: "m1", StoreID: "s1", Date: *day(2), QtyDispensed: 7, OnHand: 0, Censored: true},
		{MedID: "m2", StoreID: "s1", Date: *day(1), QtyDispensed: 3, OnHand: 20},
		{MedID: "m2", StoreID: "s1", Date: *day(2), QtyDispensed: 5, OnHand: 15},
	}
}

func TestComputeFinancial(t *testing.T) {
	m := ComputeFinancial(sampleOrders())

	assert.Equal(t, 350.0, m.TotalRevenue)
	assert.Equal(t, 6, m.TotalOrders)
	assert.Equal(t, 5, m.BilledOrders)
	assert.Equal(t, 70.0, m.AvgOrderValue)
	assert.Equal(t, 10.0, m.MinOrderValue)
	assert.Equal(t, 149.5, m.MaxOrderValue)
	assert.Equal(t, 97.1, m.SupplierConcentrationPct)

	require.Len(t, m.TopSuppliers, 4)
	assert.Equal(t, "A", m.TopSuppliers[0].SupplierID)
	assert.Equal(t, 150.5, m.TopSuppliers[0].Revenue)
	assert.Equal(t, 2, m.TopSuppliers[0].OrderCount)
	assert.Equal(t, 43.0, m.TopSuppliers[0].SharePct)
	assert.Equal(t, "B", m.TopSuppliers[1].SupplierID)
	assert.Equal(t, 42.7, m.TopSuppliers[1].SharePct)
	assert.Equal(t, "D", m.TopSuppliers[2].SupplierID)
	assert.Equal(t, "C", m.TopSuppliers[3].SupplierID)
	assert.Equal(t, 2.9, m.TopSuppliers[3].SharePct)
}

func TestComputeFinancial_Empty(t *testing.T) {
	m := ComputeFinancial(nil)

	assert.Zero(t, m.TotalRevenue)
	assert.Zero(t, m.AvgOrderValue)
	assert.Zero(t, m.SupplierConcentrationPct)
	assert.NotNil(t, m.TopSuppliers)
	assert.Empty(t, m.TopSuppliers)
}

func TestComputeFinancial_LeaderboardLimit(t *testing.T) {
	var orders []OrderRecord
	for i, s := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		orders = append(orders, order("PO-"+s, s, OrderStatusDelivered, decimal.NewFromInt(int64(10*(i+1))).String()))
	}

	m := ComputeFinancial(orders)
	require.Len(t, m.TopSuppliers, TopSuppliersLimit)
	assert.Equal(t, "g", m.TopSuppliers[0].SupplierID)
	// top 3 = 70+60+50 of 280
	assert.Equal(t, 64.3, m.SupplierConcentrationPct)
}

func TestComputeOperational(t *testing.T) {
	m := ComputeOperational(sampleOrders(), sampleConsumption(), 30)

	assert.Equal(t, int64(15), m.CurrentStock)
	assert.Equal(t, 11.25, m.AvgStock)
	assert.Equal(t, int64(20), m.TotalConsumption)
	assert.Equal(t, 0.67, m.DailyConsumptionRate)
	assert.Equal(t, 1.78, m.InventoryTurnover)
	assert.Equal(t, 1, m.StockoutItems)
	assert.Equal(t, 33.3, m.FulfillmentRatePct)
	assert.Equal(t, 16.7, m.CancellationRatePct)
	assert.Equal(t, 0.5, m.AvgDeliveryDelayDays)
}

func TestComputeOperational_TurnoverFloorsAverageStock(t *testing.T) {
	consumption := []ConsumptionRecord{
		{MedID: "m1", StoreID: "s1", Date: *day(1), QtyDispensed: 9, OnHand: 0},
	}

	m := ComputeOperational(nil, consumption, 7)
	assert.Equal(t, 9.0, m.InventoryTurnover)
	assert.Zero(t, m.FulfillmentRatePct)
}

func TestComputeQuality(t *testing.T) {
	m := ComputeQuality(sampleOrders(), sampleConsumption())

	assert.Equal(t, 50.0, m.OnTimeDeliveryRatePct)
	assert.Equal(t, 66.7, m.DeliverySuccessRatePct)
	assert.Equal(t, 75.0, m.StockAccuracyPct)
	assert.Equal(t, 75.0, m.ServiceLevelPct)
	assert.Equal(t, int64(4), m.TotalDemand)
	assert.Equal(t, int64(1), m.StockoutIncidents)
}

func TestComputeQuality_NoDemand(t *testing.T) {
	m := ComputeQuality(nil, nil)

	assert.Zero(t, m.StockAccuracyPct)
	assert.Zero(t, m.ServiceLevelPct)
	assert.Zero(t, m.OnTimeDeliveryRatePct)
}

func TestComputeTrends(t *testing.T) {
	previous := []OrderRecord{
		order("PO-P1", "A", OrderStatusDelivered, "100.00"),
		order("PO-P2", "B", OrderStatusCancelled, "75.00"),
	}

	m := ComputeTrends(sampleOrders(), previous)
	assert.Equal(t, 250.0, m.RevenueChangePct)
	assert.Equal(t, 200.0, m.OrdersChangePct)
	assert.Equal(t, -30.0, m.AvgOrderValueChangePct)
	assert.Equal(t, 100.0, m.PreviousRevenue)
	assert.Equal(t, 2, m.PreviousOrders)
}

func TestComputeTrends_ZeroPreviousPeriod(t *testing.T) {
	t.Run("absent previous period", func(t *testing.T) {
		m := ComputeTrends(sampleOrders(), nil)
		assert.Equal(t, 0.0, m.RevenueChangePct)
		assert.Equal(t, 0.0, m.OrdersChangePct)
		assert.Equal(t, 0.0, m.AvgOrderValueChangePct)
	})

	t.Run("previous period with only cancelled orders", func(t *testing.T) {
		m := ComputeTrends(sampleOrders(), []OrderRecord{order("PO-X", "A", OrderStatusCancelled, "10")})
		assert.Equal(t, 0.0, m.RevenueChangePct)
		assert.Equal(t, 0.0, m.AvgOrderValueChangePct)
		assert.Equal(t, 500.0, m.OrdersChangePct)
	})
}

func TestPercentChange(t *testing.T) {
	for _, prev := range []decimal.Decimal{decimal.Zero, {}} {
		got := PercentChange(decimal.NewFromInt(42), prev)
		assert.Equal(t, 0.0, got)
		assert.False(t, math.IsInf(got, 0))
		assert.False(t, math.IsNaN(got))
	}
	assert.Equal(t, -50.0, PercentChange(decimal.NewFromInt(5), decimal.NewFromInt(10)))
	assert.Equal(t, 33.3, PercentChange(decimal.NewFromInt(4), decimal.NewFromInt(3)))
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 10.13, RoundMoney(decimal.RequireFromString("10.125")))
	assert.Equal(t, 12.4, RoundPercent(decimal.RequireFromString("12.35")))
	assert.Equal(t, 0.0, Percentage(decimal.NewFromInt(1), decimal.Zero))
}
