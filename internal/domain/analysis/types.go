package analysis

import "fmt"

// Type selects which sub-analyses a job runs
type Type string

const (
	TypeQuickAssessment       Type = "quick_assessment"
	TypeFull                  Type = "full"
	TypeWarehouseOptimization Type = "warehouse_optimization"
	TypePurchaseOrder         Type = "purchase_order"
)

// ParseType validates an analysis type string; empty selects TypeFull
func ParseType(s string) (Type, error) {
	if s == "" {
		return TypeFull, nil
	}
	t := Type(s)
	switch t {
	case TypeQuickAssessment, TypeFull, TypeWarehouseOptimization, TypePurchaseOrder:
		return t, nil
	}
	return "", fmt.Errorf("unsupported analysis type %q", s)
}

// IncludesSuppliers reports whether the type scores suppliers
func (t Type) IncludesSuppliers() bool {
	return t == TypeFull || t == TypePurchaseOrder
}

// IncludesForecast reports whether the type forecasts demand and reorder points
func (t Type) IncludesForecast() bool {
	return t == TypeFull || t == TypePurchaseOrder || t == TypeWarehouseOptimization
}

// IncludesSlotting reports whether the type produces ABC slotting classes
func (t Type) IncludesSlotting() bool {
	return t == TypeFull || t == TypeWarehouseOptimization
}

// IncludesPurchaseOrders reports whether the type drafts purchase orders
func (t Type) IncludesPurchaseOrders() bool {
	return t == TypeFull || t == TypePurchaseOrder
}
