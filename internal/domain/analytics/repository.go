package analytics

import "context"

// OrderRepository provides read access to purchase order records
type OrderRepository interface {
	// FindByPeriod returns orders created inside the period that pass the filter,
	// ordered by creation time.
	FindByPeriod(ctx context.Context, period Period, filter Filter) ([]OrderRecord, error)
}

// ConsumptionRepository provides read access to daily consumption observations
type ConsumptionRepository interface {
	// FindByPeriod returns observations dated inside the period that pass the filter,
	// ordered by date.
	FindByPeriod(ctx context.Context, period Period, filter Filter) ([]ConsumptionRecord, error)
}
