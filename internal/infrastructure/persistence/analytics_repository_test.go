package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func setupAnalyticsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// newMockAnalyticsDB creates a GORM postgres connection backed by sqlmock
func newMockAnalyticsDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func order(poID, supplier string, status analytics.OrderStatus, amount string, created time.Time) analytics.OrderRecord {
	return analytics.OrderRecord{
		POID:         poID,
		SupplierID:   supplier,
		SupplierName: "Supplier " + supplier,
		Status:       status,
		TotalAmount:  decimal.RequireFromString(amount),
		CreatedAt:    created,
	}
}

func TestGormOrderRepository_FindByPeriod(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	requested := testDay.AddDate(0, 0, 3)
	delivered := order("PO-2", "S2", analytics.OrderStatusDelivered, "250.00", testDay.Add(2*time.Hour))
	delivered.RequestedDeliveryDate = &requested
	delivered.ActualDeliveryDate = &requested

	inserted, err := repo.SaveAll(ctx, []analytics.OrderRecord{
		order("PO-1", "S1", analytics.OrderStatusPending, "120.50", testDay.Add(time.Hour)),
		delivered,
		order("PO-3", "S1", analytics.OrderStatusCancelled, "80.00", testDay.AddDate(0, 0, -10)),
		order("PO-4", "S1", analytics.OrderStatusApproved, "10.00", testDay.AddDate(0, 0, 1)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), inserted)

	period := analytics.Period{Start: testDay, End: testDay.AddDate(0, 0, 1)}

	t.Run("returns orders inside the half-open window in creation order", func(t *testing.T) {
		orders, err := repo.FindByPeriod(ctx, period, analytics.Filter{})
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "PO-1", orders[0].POID)
		assert.True(t, decimal.RequireFromString("120.50").Equal(orders[0].TotalAmount))
		assert.Equal(t, "PO-2", orders[1].POID)
		require.NotNil(t, orders[1].ActualDeliveryDate)
		assert.True(t, requested.Equal(*orders[1].ActualDeliveryDate))
	})

	t.Run("applies supplier filter", func(t *testing.T) {
		orders, err := repo.FindByPeriod(ctx, period, analytics.Filter{SupplierID: "S2"})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "S2", orders[0].SupplierID)
	})

	t.Run("empty window", func(t *testing.T) {
		orders, err := repo.FindByPeriod(ctx, analytics.Period{Start: testDay.AddDate(1, 0, 0), End: testDay.AddDate(1, 0, 7)}, analytics.Filter{})
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("save skips existing po ids", func(t *testing.T) {
		inserted, err := repo.SaveAll(ctx, []analytics.OrderRecord{
			order("PO-1", "S1", analytics.OrderStatusPending, "999.00", testDay),
		})
		require.NoError(t, err)
		assert.Zero(t, inserted)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})
}

func TestGormConsumptionRepository_FindByPeriod(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	repo := NewGormConsumptionRepository(db)
	ctx := context.Background()

	inserted, err := repo.SaveAll(ctx, []analytics.ConsumptionRecord{
		{MedID: "m1", StoreID: "s1", Date: testDay, QtyDispensed: 4, OnHand: 20},
		{MedID: "m2", StoreID: "s1", Date: testDay, QtyDispensed: 1, OnHand: 0, Censored: true},
		{MedID: "m1", StoreID: "s2", Date: testDay.AddDate(0, 0, 1), QtyDispensed: 7, OnHand: 3},
		{MedID: "m1", StoreID: "s1", Date: testDay.AddDate(0, 0, -1), QtyDispensed: 2, OnHand: 24},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), inserted)

	period := analytics.Period{Start: testDay, End: testDay.AddDate(0, 0, 2)}

	t.Run("returns observations ordered by date", func(t *testing.T) {
		records, err := repo.FindByPeriod(ctx, period, analytics.Filter{})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "m1", records[0].MedID)
		assert.Equal(t, "m2", records[1].MedID)
		assert.True(t, records[1].Censored)
		assert.Equal(t, "s2", records[2].StoreID)
	})

	t.Run("applies store and medication filters", func(t *testing.T) {
		records, err := repo.FindByPeriod(ctx, period, analytics.Filter{StoreID: "s1", MedID: "m1"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(4), records[0].QtyDispensed)
	})

	t.Run("duplicate day is skipped", func(t *testing.T) {
		inserted, err := repo.SaveAll(ctx, []analytics.ConsumptionRecord{
			{MedID: "m1", StoreID: "s1", Date: testDay, QtyDispensed: 99},
		})
		require.NoError(t, err)
		assert.Zero(t, inserted)
	})
}

func TestGormOrderRepository_FindByPeriod_SQL(t *testing.T) {
	t.Run("builds filtered query", func(t *testing.T) {
		db, mock, mockDB := newMockAnalyticsDB(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db)

		rows := sqlmock.NewRows([]string{"id", "po_id", "supplier_id", "supplier_name", "status", "total_amount", "created_at", "updated_at"}).
			AddRow("0b5d7c1e-8a61-4ef6-9a57-3b1d4a1f2c01", "PO-9", "S9", "Nine", "delivered", "42.10", testDay, testDay)

		mock.ExpectQuery(`SELECT \* FROM "purchase_orders" WHERE .*created_at >= \$1 AND created_at < \$2.* AND supplier_id = \$3 ORDER BY created_at ASC,po_id ASC`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "S9").
			WillReturnRows(rows)

		orders, err := repo.FindByPeriod(context.Background(),
			analytics.Period{Start: testDay, End: testDay.AddDate(0, 0, 7)},
			analytics.Filter{SupplierID: "S9"})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, analytics.OrderStatusDelivered, orders[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps query errors", func(t *testing.T) {
		db, mock, mockDB := newMockAnalyticsDB(t)
		defer mockDB.Close()
		repo := NewGormOrderRepository(db)

		boom := errors.New("connection reset")
		mock.ExpectQuery(`SELECT \* FROM "purchase_orders"`).WillReturnError(boom)

		orders, err := repo.FindByPeriod(context.Background(),
			analytics.Period{Start: testDay, End: testDay.AddDate(0, 0, 7)},
			analytics.Filter{})
		assert.Nil(t, orders)
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormConsumptionRepository_FindByPeriod_SQL(t *testing.T) {
	db, mock, mockDB := newMockAnalyticsDB(t)
	defer mockDB.Close()
	repo := NewGormConsumptionRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "consumption_records" WHERE .*date >= \$1 AND date < \$2.* AND store_id = \$3 AND med_id = \$4 ORDER BY date ASC,med_id ASC,store_id ASC`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "s1", "m1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "med_id", "store_id", "date", "qty_dispensed", "on_hand", "censored"}))

	records, err := repo.FindByPeriod(context.Background(),
		analytics.Period{Start: testDay, End: testDay.AddDate(0, 0, 7)},
		analytics.Filter{StoreID: "s1", MedID: "m1"})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}
