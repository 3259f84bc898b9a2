package persistence

import (
	"context"
	"fmt"

	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertBatchSize bounds the rows per INSERT statement when seeding
const insertBatchSize = 500

// GormOrderRepository implements analytics.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByPeriod implements analytics.OrderRepository
func (r *GormOrderRepository) FindByPeriod(ctx context.Context, period analytics.Period, filter analytics.Filter) ([]analytics.OrderRecord, error) {
	query := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", period.Start, period.End)
	if filter.SupplierID != "" {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}

	var rows []models.PurchaseOrderModel
	if err := query.Order("created_at ASC").Order("po_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load purchase orders: %w", err)
	}

	orders := make([]analytics.OrderRecord, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

// SaveAll inserts orders, skipping ones whose po_id already exists.
// It returns the number of rows inserted.
func (r *GormOrderRepository) SaveAll(ctx context.Context, orders []analytics.OrderRecord) (int64, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	rows := make([]*models.PurchaseOrderModel, len(orders))
	for i, o := range orders {
		rows[i] = models.PurchaseOrderModelFromDomain(o)
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "po_id"}}, DoNothing: true}).
		CreateInBatches(rows, insertBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to save purchase orders: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Count returns the number of stored purchase orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count purchase orders: %w", err)
	}
	return n, nil
}

var _ analytics.OrderRepository = (*GormOrderRepository)(nil)
