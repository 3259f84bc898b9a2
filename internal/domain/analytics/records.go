package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle status of a purchase order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderRecord is a read model of a purchase order as seen by analytics
type OrderRecord struct {
	POID                  string          `json:"po_id"`
	SupplierID            string          `json:"supplier_id"`
	SupplierName          string          `json:"supplier_name"`
	Status                OrderStatus     `json:"status"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	CreatedAt             time.Time       `json:"created_at"`
	RequestedDeliveryDate *time.Time      `json:"requested_delivery_date,omitempty"`
	ActualDeliveryDate    *time.Time      `json:"actual_delivery_date,omitempty"`
}

// IsCancelled reports whether the order was cancelled
func (o OrderRecord) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// IsDelivered reports whether the order was delivered
func (o OrderRecord) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// DeliveryDelayDays returns actual minus requested delivery in days.
// ok is false when either date is missing.
func (o OrderRecord) DeliveryDelayDays() (days float64, ok bool) {
	if o.RequestedDeliveryDate == nil || o.ActualDeliveryDate == nil {
		return 0, false
	}
	return o.ActualDeliveryDate.Sub(*o.RequestedDeliveryDate).Hours() / 24, true
}

// ConsumptionRecord is one daily demand observation of a medication at a store.
// Censored observations are days where demand could not be fully observed,
// typically because the shelf ran empty.
type ConsumptionRecord struct {
	MedID        string    `json:"med_id"`
	StoreID      string    `json:"store_id"`
	Date         time.Time `json:"date"`
	QtyDispensed int64     `json:"qty_dispensed"`
	OnHand       int64     `json:"on_hand"`
	Censored     bool      `json:"censored"`
}

// IsStockout reports whether the observation ended with an empty shelf
func (c ConsumptionRecord) IsStockout() bool {
	return c.OnHand <= 0
}
