package domain

import "context"

// CatalogFetcher defines the interface to the remote shoe catalog. It is a
// pure function of remote state at call time; implementations fail with
// ErrConnectivity on network trouble and ErrInvalidArgument on caller error.
type CatalogFetcher interface {
	// ListProducts crawls the given catalog entry URLs up to maxPages pages
	// each and returns every product identifier URL currently listed.
	ListProducts(ctx context.Context, entryURLs []string, maxPages int) ([]string, error)

	// FetchDetails fetches full product records for the given identifier
	// URLs. Identifiers that no longer resolve are silently omitted.
	FetchDetails(ctx context.Context, urls []string) ([]Product, error)

	// FetchPrices fetches the current price for each (code, url) pair.
	// Price 0 means unreadable or out of stock.
	FetchPrices(ctx context.Context, pairs []CodeURL) ([]CodePrice, error)

	// FetchStock fetches per-outlet size availability for each
	// (code, localID) pair.
	FetchStock(ctx context.Context, pairs []CodeLocalID) ([]StockSnapshot, error)
}

// ProductRepository is the products table of the snapshot store.
type ProductRepository interface {
	// Identifiers returns the identifier URLs of all product rows.
	Identifiers(ctx context.Context) ([]string, error)

	// IdentifiersBelowBaseline returns identifier URLs with rating below the
	// configured baseline (previously flagged stale).
	IdentifiersBelowBaseline(ctx context.Context) ([]string, error)

	// CodeURLs returns the (code, identifier URL) pair of every product row.
	CodeURLs(ctx context.Context) ([]CodeURL, error)

	// FlagVanished sets rating to 1 for the given identifiers.
	FlagVanished(ctx context.Context, urls []string) error

	// RestoreBaseline resets rating to the baseline for the given identifiers.
	RestoreBaseline(ctx context.Context, urls []string) error

	// Insert adds newly observed product rows.
	Insert(ctx context.Context, products []Product) error
}

// PriceRepository is the append-only prices table of the snapshot store.
type PriceRepository interface {
	// LastPrices returns the most recent price row per code.
	LastPrices(ctx context.Context) ([]PriceRow, error)

	// Append inserts new price history rows. Never overwrites.
	Append(ctx context.Context, rows []PriceRow) error
}

// StockRepository is the append-only per-outlet stock table of the store.
type StockRepository interface {
	// LastStock returns the most recent row per (code, size).
	LastStock(ctx context.Context) ([]StockRow, error)

	// ZeroCountCodes returns codes whose latest rows already record a zero
	// count, so that repeated zero-out writes can be suppressed.
	ZeroCountCodes(ctx context.Context) ([]int, error)

	// Append inserts new stock history rows. Never overwrites.
	Append(ctx context.Context, rows []StockRow) error
}

// ListingCache holds the last fetched identifier list so that a retried
// products step after a transient disconnect does not re-crawl the listing
// pages. Implementations return ErrCacheMiss when nothing is cached.
type ListingCache interface {
	Get(ctx context.Context) ([]string, error)
	Set(ctx context.Context, urls []string) error
	Clear(ctx context.Context) error
}
