package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shoesync/backend/internal/domain"
)

// ProductsSyncConfig holds configuration for the products synchronizer.
type ProductsSyncConfig struct {
	EntryURLs      []string
	MaxPages       int
	BaselineRating int
}

// ProductsSynchronizer reconciles the set of listed product identifiers
// against the stored ones: vanished items are flagged stale, reappeared
// items restored to baseline, genuinely new items detail-fetched and
// inserted.
type ProductsSynchronizer struct {
	fetcher  domain.CatalogFetcher
	products domain.ProductRepository
	listings domain.ListingCache // optional; survives transient disconnects
	cfg      ProductsSyncConfig
	now      func() time.Time
}

// NewProductsSynchronizer creates a products synchronizer. listings may be
// nil, in which case every attempt re-crawls the listing pages.
func NewProductsSynchronizer(
	fetcher domain.CatalogFetcher,
	products domain.ProductRepository,
	listings domain.ListingCache,
	cfg ProductsSyncConfig,
) *ProductsSynchronizer {
	if cfg.BaselineRating == 0 {
		cfg.BaselineRating = DefaultBaselineRating
	}
	return &ProductsSynchronizer{
		fetcher:  fetcher,
		products: products,
		listings: listings,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run executes one products synchronization step: fetch the listing, read
// the stored identifier sets, diff, write the three disjoint batches.
// Returns (false, nil) when there is nothing to diff against.
func (s *ProductsSynchronizer) Run(ctx context.Context) (bool, error) {
	listed, err := s.currentListing(ctx)
	if err != nil {
		return false, err
	}

	stored, err := s.products.Identifiers(ctx)
	if err != nil {
		return false, fmt.Errorf("read identifiers: %w", err)
	}
	lowRated, err := s.products.IdentifiersBelowBaseline(ctx)
	if err != nil {
		return false, fmt.Errorf("read low-rated identifiers: %w", err)
	}

	diff := diffProducts(listed, stored, lowRated)
	log.Printf("[products] listed=%d stored=%d vanished=%d returning=%d candidates=%d",
		len(listed), len(stored), len(diff.vanished), len(diff.returning), len(diff.candidates))

	if len(diff.vanished) > 0 {
		if err := s.products.FlagVanished(ctx, diff.vanished); err != nil {
			return false, fmt.Errorf("flag vanished: %w", err)
		}
	}
	if len(diff.returning) > 0 {
		if err := s.products.RestoreBaseline(ctx, diff.returning); err != nil {
			return false, fmt.Errorf("restore returning: %w", err)
		}
	}
	if len(diff.candidates) > 0 {
		if err := s.insertNew(ctx, diff.candidates); err != nil {
			return false, err
		}
	}

	// The cached listing has served its purpose once the step committed.
	if s.listings != nil {
		if err := s.listings.Clear(ctx); err != nil {
			log.Printf("[products] listing cache clear failed: %v", err)
		}
	}

	return true, nil
}

// currentListing returns the deduplicated listing, preferring a snapshot
// cached by an earlier, connectivity-aborted attempt over a fresh crawl.
func (s *ProductsSynchronizer) currentListing(ctx context.Context) ([]string, error) {
	if s.listings != nil {
		cached, err := s.listings.Get(ctx)
		if err == nil && len(cached) > 0 {
			log.Printf("[products] reusing cached listing (%d identifiers)", len(cached))
			return dedupe(cached), nil
		}
		if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[products] listing cache read failed: %v", err)
		}
	}

	listed, err := s.fetcher.ListProducts(ctx, s.cfg.EntryURLs, s.cfg.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if s.listings != nil {
		if err := s.listings.Set(ctx, listed); err != nil {
			log.Printf("[products] listing cache write failed: %v", err)
		}
	}
	return dedupe(listed), nil
}

// insertNew detail-fetches genuinely new identifiers and inserts the
// resulting records at baseline rating. A candidate the detail fetch no
// longer resolves is a listing race, not a fault, and is skipped.
func (s *ProductsSynchronizer) insertNew(ctx context.Context, candidates []string) error {
	details, err := s.fetcher.FetchDetails(ctx, candidates)
	if err != nil {
		return fmt.Errorf("fetch details: %w", err)
	}
	if len(details) == 0 {
		log.Printf("[products] no details resolved for %d candidates", len(candidates))
		return nil
	}

	now := s.now()
	for i := range details {
		details[i].UpdatedAt = now
		details[i].Rating = s.cfg.BaselineRating
	}
	if err := s.products.Insert(ctx, details); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	log.Printf("[products] inserted %d new products", len(details))
	return nil
}

// productDiff is the outcome of one products reconciliation. The three sets
// are pairwise disjoint by construction.
type productDiff struct {
	vanished   []string // at baseline in the store, no longer listed -> rating 1
	returning  []string // previously flagged, listed again -> rating baseline
	candidates []string // never seen -> detail fetch + insert
}

// diffProducts computes the products diff. stored may include the lowRated
// identifiers; the comparison base is the baseline-rated remainder, so an
// identifier already flagged stale is never re-flagged on later cycles.
func diffProducts(listed, stored, lowRated []string) productDiff {
	listedSet := toSet(listed)
	lowSet := toSet(lowRated)

	fresh := make(map[string]struct{}, len(stored))
	for _, url := range stored {
		if _, ok := lowSet[url]; !ok {
			fresh[url] = struct{}{}
		}
	}

	var d productDiff
	for url := range fresh {
		if _, ok := listedSet[url]; !ok {
			d.vanished = append(d.vanished, url)
		}
	}
	for url := range listedSet {
		if _, ok := fresh[url]; ok {
			continue
		}
		if _, ok := lowSet[url]; ok {
			d.returning = append(d.returning, url)
		} else {
			d.candidates = append(d.candidates, url)
		}
	}

	sort.Strings(d.vanished)
	sort.Strings(d.returning)
	sort.Strings(d.candidates)
	return d
}

func toSet(urls []string) map[string]struct{} {
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return set
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := urls[:0:0]
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
