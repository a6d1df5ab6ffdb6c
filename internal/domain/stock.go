package domain

import "time"

// SizeCount is one size's remaining quantity as offered by the remote site.
// Sizes are carried as float64 throughout; textual representations must be
// parsed to a numeric value once, at the adapter boundary, so that equal
// sizes never differ by formatting.
type SizeCount struct {
	Size  float64 `json:"size"`
	Count int     `json:"count"`
}

// StockSnapshot is the remote per-outlet availability of one product code.
type StockSnapshot struct {
	Code    int
	Outlets map[string][]SizeCount
}

// StockRow is one append-only stock history row, scoped to a single outlet.
// Count 0 records "size known but currently unavailable", which is distinct
// from the size never having been observed.
type StockRow struct {
	Code      int       `json:"code"`
	Size      float64   `json:"size"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
	Rating    int       `json:"rating"`
}
