package analytics

// Filter narrows the records used for KPI computation.
// Empty fields do not filter.
type Filter struct {
	SupplierID string `json:"supplier_id,omitempty" form:"supplier_id"`
	StoreID    string `json:"store_id,omitempty" form:"store_id"`
	MedID      string `json:"med_id,omitempty" form:"med_id"`
}

// Params returns the non-empty filter fields as a map, the normalized
// form used for cache fingerprints.
func (f Filter) Params() map[string]any {
	params := make(map[string]any)
	if f.SupplierID != "" {
		params["supplier_id"] = f.SupplierID
	}
	if f.StoreID != "" {
		params["store_id"] = f.StoreID
	}
	if f.MedID != "" {
		params["med_id"] = f.MedID
	}
	return params
}

// MatchesOrder reports whether an order passes the filter
func (f Filter) MatchesOrder(o OrderRecord) bool {
	return f.SupplierID == "" || f.SupplierID == o.SupplierID
}

// MatchesConsumption reports whether a consumption observation passes the filter
func (f Filter) MatchesConsumption(c ConsumptionRecord) bool {
	if f.StoreID != "" && f.StoreID != c.StoreID {
		return false
	}
	return f.MedID == "" || f.MedID == c.MedID
}
