package persistence

import (
	"context"
	"fmt"

	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormConsumptionRepository implements analytics.ConsumptionRepository using GORM
type GormConsumptionRepository struct {
	db *gorm.DB
}

// NewGormConsumptionRepository creates a new GormConsumptionRepository
func NewGormConsumptionRepository(db *gorm.DB) *GormConsumptionRepository {
	return &GormConsumptionRepository{db: db}
}

// FindByPeriod implements analytics.ConsumptionRepository
func (r *GormConsumptionRepository) FindByPeriod(ctx context.Context, period analytics.Period, filter analytics.Filter) ([]analytics.ConsumptionRecord, error) {
	query := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", period.Start, period.End)
	if filter.StoreID != "" {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.MedID != "" {
		query = query.Where("med_id = ?", filter.MedID)
	}

	var rows []models.ConsumptionRecordModel
	if err := query.Order("date ASC").Order("med_id ASC").Order("store_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load consumption records: %w", err)
	}

	records := make([]analytics.ConsumptionRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// SaveAll inserts observations, skipping duplicates of (med_id, store_id, date).
// It returns the number of rows inserted.
func (r *GormConsumptionRepository) SaveAll(ctx context.Context, records []analytics.ConsumptionRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	rows := make([]*models.ConsumptionRecordModel, len(records))
	for i, c := range records {
		rows[i] = models.ConsumptionRecordModelFromDomain(c)
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "med_id"}, {Name: "store_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		CreateInBatches(rows, insertBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to save consumption records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

var _ analytics.ConsumptionRepository = (*GormConsumptionRepository)(nil)
