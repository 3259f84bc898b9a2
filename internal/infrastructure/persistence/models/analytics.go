package models

import (
	"time"

	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for a purchase order
type PurchaseOrderModel struct {
	BaseModel
	POID                  string          `gorm:"column:po_id;type:varchar(64);not null;uniqueIndex:uq_purchase_orders_po_id"`
	SupplierID            string          `gorm:"type:varchar(64);not null;index:idx_purchase_orders_supplier,priority:1"`
	SupplierName          string          `gorm:"type:varchar(200);not null;default:''"`
	Status                string          `gorm:"type:varchar(20);not null"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	RequestedDeliveryDate *time.Time
	ActualDeliveryDate    *time.Time
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the model to the analytics read model
func (m *PurchaseOrderModel) ToDomain() analytics.OrderRecord {
	return analytics.OrderRecord{
		POID:                  m.POID,
		SupplierID:            m.SupplierID,
		SupplierName:          m.SupplierName,
		Status:                analytics.OrderStatus(m.Status),
		TotalAmount:           m.TotalAmount,
		CreatedAt:             m.CreatedAt,
		RequestedDeliveryDate: m.RequestedDeliveryDate,
		ActualDeliveryDate:    m.ActualDeliveryDate,
	}
}

// PurchaseOrderModelFromDomain builds a model from an order record
func PurchaseOrderModelFromDomain(o analytics.OrderRecord) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		POID:                  o.POID,
		SupplierID:            o.SupplierID,
		SupplierName:          o.SupplierName,
		Status:                string(o.Status),
		TotalAmount:           o.TotalAmount,
		RequestedDeliveryDate: o.RequestedDeliveryDate,
		ActualDeliveryDate:    o.ActualDeliveryDate,
	}
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.CreatedAt
	return m
}

// ConsumptionRecordModel is the persistence model for a daily consumption observation
type ConsumptionRecordModel struct {
	BaseModel
	MedID        string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_consumption_records_item_day,priority:1"`
	StoreID      string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_consumption_records_item_day,priority:2"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:uq_consumption_records_item_day,priority:3;index"`
	QtyDispensed int64     `gorm:"not null;default:0"`
	OnHand       int64     `gorm:"not null;default:0"`
	Censored     bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ConsumptionRecordModel) TableName() string {
	return "consumption_records"
}

// ToDomain converts the model to the analytics read model
func (m *ConsumptionRecordModel) ToDomain() analytics.ConsumptionRecord {
	return analytics.ConsumptionRecord{
		MedID:        m.MedID,
		StoreID:      m.StoreID,
		Date:         m.Date,
		QtyDispensed: m.QtyDispensed,
		OnHand:       m.OnHand,
		Censored:     m.Censored,
	}
}

// ConsumptionRecordModelFromDomain builds a model from an observation
func ConsumptionRecordModelFromDomain(c analytics.ConsumptionRecord) *ConsumptionRecordModel {
	return &ConsumptionRecordModel{
		MedID:        c.MedID,
		StoreID:      c.StoreID,
		Date:         c.Date,
		QtyDispensed: c.QtyDispensed,
		OnHand:       c.OnHand,
		Censored:     c.Censored,
	}
}

// AllModels lists the models created by AutoMigrate
func AllModels() []any {
	return []any{
		&PurchaseOrderModel{},
		&ConsumptionRecordModel{},
	}
}
