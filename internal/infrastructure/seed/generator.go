// Package seed generates plausible purchase order and consumption history
// for demos, local development and tests.
package seed

import (
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is returned for non-positive dataset dimensions
var ErrInvalidConfig = errors.New("invalid seed configuration")

// Config sizes the generated dataset
type Config struct {
	Suppliers    int
	Medications  int
	Stores       int
	Days         int
	MaxDailyPOs  int
	Seed         uint64    // 0 picks a random seed
	Now          time.Time // end of the history; zero means time.Now
	RestockLevel int64     // on-hand level below which a store is restocked
}

// DefaultConfig returns a small dataset that covers every time range preset
func DefaultConfig() Config {
	return Config{
		Suppliers:    8,
		Medications:  25,
		Stores:       3,
		Days:         400,
		MaxDailyPOs:  4,
		RestockLevel: 15,
	}
}

func (c Config) validate() error {
	switch {
	case c.Suppliers <= 0:
		return fmt.Errorf("%w: suppliers must be positive", ErrInvalidConfig)
	case c.Medications <= 0:
		return fmt.Errorf("%w: medications must be positive", ErrInvalidConfig)
	case c.Stores <= 0:
		return fmt.Errorf("%w: stores must be positive", ErrInvalidConfig)
	case c.Days <= 0:
		return fmt.Errorf("%w: days must be positive", ErrInvalidConfig)
	case c.MaxDailyPOs < 0:
		return fmt.Errorf("%w: max daily purchase orders cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Dataset is a generated history
type Dataset struct {
	Orders      []analytics.OrderRecord
	Consumption []analytics.ConsumptionRecord
}

type supplier struct {
	id, name string
}

// Generate builds a dataset ending at cfg.Now. The same non-zero Seed and Now
// always produce the same dataset.
func Generate(cfg Config) (*Dataset, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := now.UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -cfg.Days)

	f := gofakeit.New(cfg.Seed)

	suppliers := make([]supplier, cfg.Suppliers)
	for i := range suppliers {
		suppliers[i] = supplier{id: fmt.Sprintf("SUP-%03d", i+1), name: f.Company()}
	}

	ds := &Dataset{}
	for d := 0; d < cfg.Days; d++ {
		date := start.AddDate(0, 0, d)
		ds.Orders = append(ds.Orders, dailyOrders(f, cfg, suppliers, date, today)...)
	}
	ds.Consumption = consumptionHistory(f, cfg, start)
	return ds, nil
}

func dailyOrders(f *gofakeit.Faker, cfg Config, suppliers []supplier, date, today time.Time) []analytics.OrderRecord {
	n := f.IntRange(0, cfg.MaxDailyPOs)
	orders := make([]analytics.OrderRecord, 0, n)
	for i := 0; i < n; i++ {
		s := suppliers[f.IntRange(0, len(suppliers)-1)]
		created := date.Add(time.Duration(f.IntRange(8*60, 18*60)) * time.Minute)
		requested := date.AddDate(0, 0, f.IntRange(3, 10))

		o := analytics.OrderRecord{
			POID:                  fmt.Sprintf("PO-%s-%02d", date.Format("20060102"), i+1),
			SupplierID:            s.id,
			SupplierName:          s.name,
			TotalAmount:           decimal.NewFromFloat(f.Price(50, 5000)).Round(2),
			CreatedAt:             created,
			RequestedDeliveryDate: &requested,
		}
		o.Status = orderStatus(f, requested, today)
		if o.Status == analytics.OrderStatusDelivered {
			actual := requested.AddDate(0, 0, f.IntRange(-2, 4))
			o.ActualDeliveryDate = &actual
		}
		orders = append(orders, o)
	}
	return orders
}

// orderStatus favors delivered for orders due in the past and open states otherwise
func orderStatus(f *gofakeit.Faker, requested, today time.Time) analytics.OrderStatus {
	roll := f.Float64()
	if roll < 0.06 {
		return analytics.OrderStatusCancelled
	}
	if requested.Before(today) {
		if roll < 0.92 {
			return analytics.OrderStatusDelivered
		}
		return analytics.OrderStatusShipped
	}
	switch {
	case roll < 0.4:
		return analytics.OrderStatusPending
	case roll < 0.7:
		return analytics.OrderStatusApproved
	default:
		return analytics.OrderStatusShipped
	}
}

// consumptionHistory simulates one shelf per medication and store. Days that
// end with an empty shelf are censored since demand beyond stock went unseen.
func consumptionHistory(f *gofakeit.Faker, cfg Config, start time.Time) []analytics.ConsumptionRecord {
	records := make([]analytics.ConsumptionRecord, 0, cfg.Medications*cfg.Stores*cfg.Days)
	for m := 0; m < cfg.Medications; m++ {
		medID := fmt.Sprintf("MED-%04d", m+1)
		meanDemand := f.IntRange(2, 30)
		for s := 0; s < cfg.Stores; s++ {
			storeID := fmt.Sprintf("STORE-%02d", s+1)
			onHand := int64(f.IntRange(meanDemand*5, meanDemand*20))

			for d := 0; d < cfg.Days; d++ {
				demand := int64(f.IntRange(0, meanDemand*2))
				dispensed := min(demand, onHand)
				onHand -= dispensed

				records = append(records, analytics.ConsumptionRecord{
					MedID:        medID,
					StoreID:      storeID,
					Date:         start.AddDate(0, 0, d),
					QtyDispensed: dispensed,
					OnHand:       onHand,
					Censored:     demand > dispensed,
				})

				// Deliveries land overnight, and not always on time.
				if onHand < cfg.RestockLevel && f.Float64() < 0.6 {
					onHand += int64(f.IntRange(meanDemand*10, meanDemand*20))
				}
			}
		}
	}
	return records
}
