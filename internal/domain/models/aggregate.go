package models

// GroupStats holds the descriptive statistics for one distinct grouping-key
// combination. Only the fields belonging to the active grouping keys are set;
// the rest stay empty and are omitted from JSON output.
//
// Fields:
//   - Count: number of listings in the group (always > 0; empty groups are
//     never emitted).
//   - MeanPriceEUR: arithmetic mean of PriceEUR over the group.
//   - MeanOdometerKM: arithmetic mean of OdometerKM over the group.
type GroupStats struct {
	Brand          string  `json:"brand,omitempty"`
	Model          string  `json:"model,omitempty"`
	Damage         string  `json:"damage,omitempty"`
	Count          int     `json:"count"`
	MeanPriceEUR   float64 `json:"mean_price_eur"`
	MinPriceEUR    int64   `json:"min_price_eur"`
	MaxPriceEUR    int64   `json:"max_price_eur"`
	MeanOdometerKM float64 `json:"mean_odometer_km"`
}

// Report is the aggregation result over a cleaned dataset: one GroupStats per
// distinct key combination, sorted by key so that the same dataset always
// produces the same report regardless of row order.
//
// Report is derived state; it can be recomputed from the listings at any time.
type Report struct {
	Keys          []string     `json:"keys"` // active grouping keys, e.g. ["brand","damage"]
	TotalListings int          `json:"total_listings"`
	Groups        []GroupStats `json:"groups"`
}
