package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shoesync/backend/internal/domain"
)

// PricesSynchronizer reconciles current catalog prices against the most
// recent price row per code. Unchanged prices produce no writes; the price
// history stays bounded for stable items.
type PricesSynchronizer struct {
	fetcher  domain.CatalogFetcher
	products domain.ProductRepository
	prices   domain.PriceRepository
	baseline int
	now      func() time.Time
}

// NewPricesSynchronizer creates a prices synchronizer.
func NewPricesSynchronizer(
	fetcher domain.CatalogFetcher,
	products domain.ProductRepository,
	prices domain.PriceRepository,
	baselineRating int,
) *PricesSynchronizer {
	if baselineRating == 0 {
		baselineRating = DefaultBaselineRating
	}
	return &PricesSynchronizer{
		fetcher:  fetcher,
		products: products,
		prices:   prices,
		baseline: baselineRating,
		now:      time.Now,
	}
}

// Run executes one prices synchronization step. Returns (false, nil) when
// the products table is empty: the products step must run first.
func (s *PricesSynchronizer) Run(ctx context.Context) (bool, error) {
	products, err := s.products.CodeURLs(ctx)
	if err != nil {
		return false, fmt.Errorf("read code/url pairs: %w", err)
	}
	if len(products) == 0 {
		log.Printf("[prices] products table is empty, nothing to price")
		return false, nil
	}

	last, err := s.prices.LastPrices(ctx)
	if err != nil {
		return false, fmt.Errorf("read last prices: %w", err)
	}
	lastByCode := make(map[int]domain.PriceRow, len(last))
	for _, row := range last {
		lastByCode[row.Code] = row
	}

	var newPairs, knownPairs []domain.CodeURL
	for _, p := range products {
		if _, ok := lastByCode[p.Code]; ok {
			knownPairs = append(knownPairs, p)
		} else {
			newPairs = append(newPairs, p)
		}
	}

	now := s.now()

	if len(newPairs) > 0 {
		fetched, err := s.fetcher.FetchPrices(ctx, newPairs)
		if err != nil {
			return false, fmt.Errorf("fetch new prices: %w", err)
		}
		rows := make([]domain.PriceRow, 0, len(fetched))
		for _, f := range fetched {
			rows = append(rows, domain.PriceRow{
				Code:      f.Code,
				Price:     f.Price,
				UpdatedAt: now,
				Rating:    firstSightRating(s.baseline, f.Price),
			})
		}
		if len(rows) > 0 {
			if err := s.prices.Append(ctx, rows); err != nil {
				return false, fmt.Errorf("append new prices: %w", err)
			}
			log.Printf("[prices] first-priced %d codes", len(rows))
		}
	}

	if len(knownPairs) > 0 {
		fetched, err := s.fetcher.FetchPrices(ctx, knownPairs)
		if err != nil {
			return false, fmt.Errorf("fetch current prices: %w", err)
		}
		changed := diffPrices(fetched, lastByCode, now)
		if len(changed) > 0 {
			if err := s.prices.Append(ctx, changed); err != nil {
				return false, fmt.Errorf("append changed prices: %w", err)
			}
			log.Printf("[prices] recorded %d price changes", len(changed))
		}
	}

	return true, nil
}

// diffPrices compares fetched prices against the stored row of record, by
// exact code equality. An unchanged price yields no row. A changed nonzero
// price increments the stored rating; a changed zero price collapses it.
func diffPrices(fetched []domain.CodePrice, last map[int]domain.PriceRow, now time.Time) []domain.PriceRow {
	var rows []domain.PriceRow
	for _, f := range fetched {
		old, ok := last[f.Code]
		if !ok || f.Price == old.Price {
			continue
		}
		rows = append(rows, domain.PriceRow{
			Code:      f.Code,
			Price:     f.Price,
			UpdatedAt: now,
			Rating:    changedRating(old.Rating, f.Price),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}
