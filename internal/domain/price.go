package domain

import "time"

// CodePrice is a freshly fetched price for one product code. Price 0 means
// the remote price was unreadable or the item is out of stock.
type CodePrice struct {
	Code  int
	Price int
}

// PriceRow is one append-only price history row. The current price of a code
// is its most recently timestamped row.
type PriceRow struct {
	Code      int       `json:"code"`
	Price     int       `json:"price"`
	UpdatedAt time.Time `json:"updatedAt"`
	Rating    int       `json:"rating"`
}
