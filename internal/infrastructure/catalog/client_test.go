package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoesync/backend/internal/domain"
)

func TestNewClient(t *testing.T) {
	client := NewClient("https://shop.example", 4.0, 8)

	assert.NotNil(t, client)
	assert.Equal(t, "https://shop.example", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.Equal(t, 8, client.workers)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient("https://shop.example", 0, 0)

	assert.False(t, client.debug)
	client.SetDebug(true)
	assert.True(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestListProducts_PagesUntilEmpty(t *testing.T) {
	pages := map[string][]string{
		"1": {"/catalog/product/1/", "/catalog/product/2/"},
		"2": {"/catalog/product/3/"},
		"3": {},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalog/brand/", r.URL.Path)
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listingResponse{Products: pages[page]})
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 2)
	ctx := context.Background()

	listed, err := client.ListProducts(ctx, []string{server.URL + "/catalog/brand/"}, 30)

	require.NoError(t, err)
	assert.Equal(t, []string{"/catalog/product/1/", "/catalog/product/2/", "/catalog/product/3/"}, listed)
}

func TestListProducts_InvalidArguments(t *testing.T) {
	client := NewClient("https://shop.example", 0, 2)
	ctx := context.Background()

	tests := []struct {
		name     string
		entries  []string
		maxPages int
	}{
		{"no entry urls", nil, 10},
		{"max pages too low", []string{"https://shop.example/brand/"}, 0},
		{"max pages too high", []string{"https://shop.example/brand/"}, 31},
		{"relative entry url", []string{"/brand/"}, 10},
		{"unsupported scheme", []string{"ftp://shop.example/brand/"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ListProducts(ctx, tt.entries, tt.maxPages)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestListProducts_MissingBrandPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 2)

	listed, err := client.ListProducts(context.Background(), []string{server.URL + "/catalog/gone/"}, 30)

	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestFetchDetails_SkipsMissingAndUnparsable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog/product/1/":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(detailResponse{
				Code:  101,
				Brand: "Asics",
				Model: "Gel-Kayano 28",
			})
		case "/catalog/product/2/":
			w.WriteHeader(http.StatusNotFound)
		case "/catalog/product/3/":
			fmt.Fprint(w, "<html>not json</html>")
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 2)
	urls := []string{
		server.URL + "/catalog/product/1/",
		server.URL + "/catalog/product/2/",
		server.URL + "/catalog/product/3/",
	}

	products, err := client.FetchDetails(context.Background(), urls)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 101, products[0].Code)
	assert.Equal(t, "Asics", products[0].Brand)
	assert.Equal(t, urls[0], products[0].URL)
}

func TestFetchPrices_MissingPriceIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog/product/1/":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(detailResponse{Code: 101, Price: 9990})
		case "/catalog/product/2/":
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 2)
	pairs := []domain.CodeURL{
		{Code: 101, URL: server.URL + "/catalog/product/1/"},
		{Code: 102, URL: server.URL + "/catalog/product/2/"},
	}

	prices, err := client.FetchPrices(context.Background(), pairs)

	require.NoError(t, err)
	require.Len(t, prices, 2)
	byCode := map[int]int{}
	for _, p := range prices {
		byCode[p.Code] = p.Price
	}
	assert.Equal(t, 9990, byCode[101])
	assert.Equal(t, 0, byCode[102])
}

func TestFetchPrices_InvalidCode(t *testing.T) {
	client := NewClient("https://shop.example", 0, 2)

	_, err := client.FetchPrices(context.Background(), []domain.CodeURL{{Code: 0, URL: "https://shop.example/p/"}})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestFetchStock_ParsesStringSizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/availability/3094643/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"outlets": {"nagornaya": [
			{"size": "10,5", "count": 3},
			{"size": 9, "count": 1}
		]}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 2)

	snapshots, err := client.FetchStock(context.Background(), []domain.CodeLocalID{{Code: 101, LocalID: 3094643}})

	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 101, snapshots[0].Code)
	assert.Equal(t, []domain.SizeCount{
		{Size: 10.5, Count: 3},
		{Size: 9, Count: 1},
	}, snapshots[0].Outlets["nagornaya"])
}

func TestFetchStock_InvalidPair(t *testing.T) {
	client := NewClient("https://shop.example", 0, 2)

	_, err := client.FetchStock(context.Background(), []domain.CodeLocalID{{Code: 101, LocalID: 0}})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listingResponse{Products: []string{"/catalog/product/1/"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 2)

	listed, err := client.ListProducts(context.Background(), []string{server.URL + "/catalog/brand/"}, 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"/catalog/product/1/"}, listed)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestGet_ExhaustedRetriesAreConnectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 2)

	_, err := client.ListProducts(context.Background(), []string{server.URL + "/catalog/brand/"}, 1)

	assert.ErrorIs(t, err, domain.ErrConnectivity)
}
