package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shoesync/backend/internal/domain"
	"github.com/shoesync/backend/internal/infrastructure/catalog"
)

// InstockSynchronizer reconciles per-size availability for one outlet. It is
// a two-level diff: product codes on the outside, sizes within a code on the
// inside. Sizes that disappear are zeroed out explicitly rather than
// silently dropped.
type InstockSynchronizer struct {
	fetcher  domain.CatalogFetcher
	products domain.ProductRepository
	stock    domain.StockRepository
	outlet   string
	baseline int
	now      func() time.Time
}

// NewInstockSynchronizer creates an instock synchronizer for the named outlet.
func NewInstockSynchronizer(
	fetcher domain.CatalogFetcher,
	products domain.ProductRepository,
	stock domain.StockRepository,
	outlet string,
	baselineRating int,
) *InstockSynchronizer {
	if baselineRating == 0 {
		baselineRating = DefaultBaselineRating
	}
	return &InstockSynchronizer{
		fetcher:  fetcher,
		products: products,
		stock:    stock,
		outlet:   outlet,
		baseline: baselineRating,
		now:      time.Now,
	}
}

// Run executes one instock synchronization step. Returns (false, nil) when
// the products table is empty: the products step must run first.
func (s *InstockSynchronizer) Run(ctx context.Context) (bool, error) {
	products, err := s.products.CodeURLs(ctx)
	if err != nil {
		return false, fmt.Errorf("read code/url pairs: %w", err)
	}
	if len(products) == 0 {
		log.Printf("[instock] products table is empty, nothing to check")
		return false, nil
	}

	pairs := make([]domain.CodeLocalID, 0, len(products))
	for _, p := range products {
		localID, err := catalog.LocalID(p.URL)
		if err != nil {
			log.Printf("[instock] skipping code %d: %v", p.Code, err)
			continue
		}
		pairs = append(pairs, domain.CodeLocalID{Code: p.Code, LocalID: localID})
	}

	snapshots, err := s.fetcher.FetchStock(ctx, pairs)
	if err != nil {
		return false, fmt.Errorf("fetch stock: %w", err)
	}
	fetched := make(map[int][]domain.SizeCount, len(snapshots))
	for _, snap := range snapshots {
		sizes, ok := snap.Outlets[s.outlet]
		if !ok {
			continue
		}
		fetched[snap.Code] = sizes
	}

	lastRows, err := s.stock.LastStock(ctx)
	if err != nil {
		return false, fmt.Errorf("read last stock: %w", err)
	}
	last := make(map[int][]domain.StockRow)
	for _, row := range lastRows {
		last[row.Code] = append(last[row.Code], row)
	}

	zeroCodes, err := s.stock.ZeroCountCodes(ctx)
	if err != nil {
		return false, fmt.Errorf("read zero-count codes: %w", err)
	}
	zeroed := make(map[int]struct{}, len(zeroCodes))
	for _, code := range zeroCodes {
		zeroed[code] = struct{}{}
	}

	diff := diffStock(fetched, last, zeroed, s.baseline, s.now())
	log.Printf("[instock] outlet=%s new=%d updated=%d zeroed=%d",
		s.outlet, len(diff.firstSeen), len(diff.updated), len(diff.zeroedOut))

	for _, batch := range [][]domain.StockRow{diff.firstSeen, diff.updated, diff.zeroedOut} {
		if len(batch) == 0 {
			continue
		}
		if err := s.stock.Append(ctx, batch); err != nil {
			return false, fmt.Errorf("append stock rows: %w", err)
		}
	}

	return true, nil
}

// stockDiff is the outcome of one instock reconciliation.
type stockDiff struct {
	firstSeen []domain.StockRow // new code, or new size at a known code -> baseline
	updated   []domain.StockRow // count moved at a known (code, size) -> rating+1
	zeroedOut []domain.StockRow // size no longer offered -> count 0, rating+1
}

// diffStock computes the two-level stock diff. Codes with no prior rows are
// written verbatim at baseline with no comparison. For known codes: a count
// change at a matching size increments the stored rating, sizes that
// disappeared are zeroed out (unless the code is already in the zero-count
// index), and first-seen sizes start at baseline.
func diffStock(
	fetched map[int][]domain.SizeCount,
	last map[int][]domain.StockRow,
	zeroCodes map[int]struct{},
	baseline int,
	now time.Time,
) stockDiff {
	var d stockDiff

	for code, sizes := range fetched {
		if _, known := last[code]; known {
			continue
		}
		for _, sc := range sizes {
			d.firstSeen = append(d.firstSeen, domain.StockRow{
				Code: code, Size: sc.Size, Count: sc.Count, UpdatedAt: now, Rating: baseline,
			})
		}
	}

	for code, storedRows := range last {
		remote, ok := fetched[code]
		if !ok {
			continue
		}

		remoteSizes := make(map[float64]struct{}, len(remote))
		for _, sc := range remote {
			remoteSizes[sc.Size] = struct{}{}
		}
		storedSizes := make(map[float64]struct{}, len(storedRows))
		for _, row := range storedRows {
			storedSizes[row.Size] = struct{}{}
		}

		for _, row := range storedRows {
			// Only one fetched entry can match a stored size.
			for _, sc := range remote {
				if sc.Size == row.Size && sc.Count != row.Count {
					d.updated = append(d.updated, domain.StockRow{
						Code: code, Size: row.Size, Count: sc.Count, UpdatedAt: now, Rating: row.Rating + 1,
					})
					break
				}
			}
		}

		if _, alreadyZeroed := zeroCodes[code]; !alreadyZeroed {
			for _, row := range storedRows {
				if _, stillOffered := remoteSizes[row.Size]; stillOffered {
					continue
				}
				d.zeroedOut = append(d.zeroedOut, domain.StockRow{
					Code: code, Size: row.Size, Count: 0, UpdatedAt: now, Rating: row.Rating + 1,
				})
			}
		}

		for _, sc := range remote {
			if _, known := storedSizes[sc.Size]; known {
				continue
			}
			d.firstSeen = append(d.firstSeen, domain.StockRow{
				Code: code, Size: sc.Size, Count: sc.Count, UpdatedAt: now, Rating: baseline,
			})
		}
	}

	sortStockRows(d.firstSeen)
	sortStockRows(d.updated)
	sortStockRows(d.zeroedOut)
	return d
}

func sortStockRows(rows []domain.StockRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Size < rows[j].Size
	})
}
