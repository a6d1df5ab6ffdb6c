package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shoesync/backend/internal/domain"
)

const (
	maxPaginationLimit = 30
	maxFetchAttempts   = 3
	defaultWorkers     = 8
	httpTimeout        = 30 * time.Second
)

// Client implements domain.CatalogFetcher against the shop's JSON endpoints.
// All requests share one http.Client and one rate limiter; batched fetches
// run on a bounded worker pool.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	workers     int
	debug       bool
}

// NewClient creates a catalog client. rps bounds outgoing requests per
// second (0 disables the limit).
func NewClient(baseURL string, rps float64, workers int) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 10)
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Client{
		httpClient:  &http.Client{Timeout: httpTimeout},
		baseURL:     baseURL,
		userAgent:   "ShoeSync/1.0",
		rateLimiter: limiter,
		workers:     workers,
	}
}

// SetDebug toggles verbose request logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// ListProducts crawls each entry URL page by page and returns every product
// identifier URL found. Paging stops early on the first empty page.
func (c *Client) ListProducts(ctx context.Context, entryURLs []string, maxPages int) ([]string, error) {
	if len(entryURLs) == 0 {
		return nil, fmt.Errorf("%w: no entry URLs", domain.ErrInvalidArgument)
	}
	if maxPages < 1 || maxPages > maxPaginationLimit {
		return nil, fmt.Errorf("%w: maxPages %d out of range 1..%d",
			domain.ErrInvalidArgument, maxPages, maxPaginationLimit)
	}
	for _, entry := range entryURLs {
		if err := validateURL(entry); err != nil {
			return nil, err
		}
	}

	var listed []string
	for _, entry := range entryURLs {
		for page := 1; page <= maxPages; page++ {
			batch, err := c.fetchListingPage(ctx, entry, page)
			if err != nil {
				return nil, err
			}
			if len(batch) == 0 {
				break
			}
			listed = append(listed, batch...)
		}
	}

	if c.debug {
		log.Printf("[catalog] listed %d identifiers from %d entry URLs", len(listed), len(entryURLs))
	}
	return listed, nil
}

// listingResponse mirrors one catalog listing page.
type listingResponse struct {
	Products []string `json:"products"`
}

func (c *Client) fetchListingPage(ctx context.Context, entry string, page int) ([]string, error) {
	pageURL, err := withPageParam(entry, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	body, status, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil // brand page gone; treat as empty listing
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: listing page returned %d", domain.ErrConnectivity, status)
	}

	var resp listingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode listing page: %w", err)
	}
	return resp.Products, nil
}

// FetchDetails fetches the full record behind each identifier URL. An
// identifier that no longer resolves is omitted rather than reported.
func (c *Client) FetchDetails(ctx context.Context, urls []string) ([]domain.Product, error) {
	for _, u := range urls {
		if err := validateURL(u); err != nil {
			return nil, err
		}
	}

	products := make([]domain.Product, 0, len(urls))
	err := c.forEach(ctx, len(urls), func(ctx context.Context, i int, collect func(func())) error {
		body, status, err := c.get(ctx, urls[i])
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			if c.debug {
				log.Printf("[catalog] detail %s returned %d, skipping", urls[i], status)
			}
			return nil
		}
		var d detailResponse
		if err := json.Unmarshal(body, &d); err != nil {
			log.Printf("[catalog] detail %s unparsable, skipping: %v", urls[i], err)
			return nil
		}
		p := mapProduct(urls[i], d)
		collect(func() { products = append(products, p) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FetchPrices fetches the current price per (code, url) pair. An unreadable
// or missing price is reported as 0.
func (c *Client) FetchPrices(ctx context.Context, pairs []domain.CodeURL) ([]domain.CodePrice, error) {
	for _, p := range pairs {
		if p.Code <= 0 {
			return nil, fmt.Errorf("%w: product code %d", domain.ErrInvalidArgument, p.Code)
		}
		if err := validateURL(p.URL); err != nil {
			return nil, err
		}
	}

	prices := make([]domain.CodePrice, 0, len(pairs))
	err := c.forEach(ctx, len(pairs), func(ctx context.Context, i int, collect func(func())) error {
		pair := pairs[i]
		body, status, err := c.get(ctx, pair.URL)
		if err != nil {
			return err
		}
		price := 0
		if status == http.StatusOK {
			var d detailResponse
			if err := json.Unmarshal(body, &d); err == nil {
				price = d.Price
			}
		}
		cp := domain.CodePrice{Code: pair.Code, Price: price}
		collect(func() { prices = append(prices, cp) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// FetchStock fetches per-outlet size availability for each (code, localID)
// pair from the availability endpoint.
func (c *Client) FetchStock(ctx context.Context, pairs []domain.CodeLocalID) ([]domain.StockSnapshot, error) {
	for _, p := range pairs {
		if p.Code <= 0 || p.LocalID <= 0 {
			return nil, fmt.Errorf("%w: stock pair (%d, %d)", domain.ErrInvalidArgument, p.Code, p.LocalID)
		}
	}

	snapshots := make([]domain.StockSnapshot, 0, len(pairs))
	err := c.forEach(ctx, len(pairs), func(ctx context.Context, i int, collect func(func())) error {
		pair := pairs[i]
		reqURL := fmt.Sprintf("%s/api/availability/%d/", c.baseURL, pair.LocalID)
		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			return err
		}
		snap := domain.StockSnapshot{Code: pair.Code, Outlets: map[string][]domain.SizeCount{}}
		if status == http.StatusOK {
			var a availabilityResponse
			if err := json.Unmarshal(body, &a); err != nil {
				log.Printf("[catalog] availability %d unparsable, skipping: %v", pair.LocalID, err)
			} else {
				snap.Outlets = mapOutlets(a)
			}
		}
		collect(func() { snapshots = append(snapshots, snap) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// get performs one rate-limited GET with bounded retries on transport
// errors and 5xx responses. The returned status may still be non-OK (e.g.
// 404); callers decide what that means.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, 0, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
			if c.debug {
				log.Printf("[catalog] GET %s attempt %d: %v", reqURL, attempt, err)
			}
			if sleepErr := sleepBackoff(ctx, attempt); sleepErr != nil {
				return nil, 0, sleepErr
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrConnectivity, readErr)
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("%w: status %d", domain.ErrConnectivity, resp.StatusCode)
			if sleepErr := sleepBackoff(ctx, attempt); sleepErr != nil {
				return nil, 0, sleepErr
			}
			continue
		}

		return body, resp.StatusCode, nil
	}
	return nil, 0, lastErr
}

// forEach runs fn for indexes 0..n-1 on a bounded worker pool and waits for
// all of them. The first error cancels the remaining work; collect appends
// a result under the shared mutex.
func (c *Client) forEach(
	ctx context.Context,
	n int,
	fn func(ctx context.Context, i int, collect func(func())) error,
) error {
	if n == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	collect := func(apply func()) {
		mu.Lock()
		apply()
		mu.Unlock()
	}
	sem := make(chan struct{}, c.workers)

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				if err := fn(ctx, i, collect); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					cancel()
				}
			}(i)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// exponentialBackoff returns the wait before retry attempt+1:
// 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}

func sleepBackoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(exponentialBackoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: malformed URL %q", domain.ErrInvalidArgument, raw)
	}
	return nil
}

func withPageParam(entry string, page int) (string, error) {
	u, err := url.Parse(entry)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
