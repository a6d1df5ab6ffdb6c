package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shoesync/backend/internal/domain"
)

// mockStockRepo is a mock implementation of domain.StockRepository.
type mockStockRepo struct {
	last      []domain.StockRow
	zeroCodes []int
	appended  [][]domain.StockRow
}

func (m *mockStockRepo) LastStock(ctx context.Context) ([]domain.StockRow, error) {
	return m.last, nil
}

func (m *mockStockRepo) ZeroCountCodes(ctx context.Context) ([]int, error) {
	return m.zeroCodes, nil
}

func (m *mockStockRepo) Append(ctx context.Context, rows []domain.StockRow) error {
	m.appended = append(m.appended, rows)
	return nil
}

func TestDiffStock(t *testing.T) {
	now := time.Date(2021, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		fetched   map[int][]domain.SizeCount
		last      map[int][]domain.StockRow
		zeroCodes map[int]struct{}
		want      stockDiff
	}{
		{
			name: "unknown code is written verbatim at baseline",
			fetched: map[int][]domain.SizeCount{
				101: {{Size: 9, Count: 3}, {Size: 10, Count: 1}},
			},
			last: map[int][]domain.StockRow{},
			want: stockDiff{
				firstSeen: []domain.StockRow{
					{Code: 101, Size: 9, Count: 3, UpdatedAt: now, Rating: 5},
					{Code: 101, Size: 10, Count: 1, UpdatedAt: now, Rating: 5},
				},
			},
		},
		{
			name: "count change and vanished size at a known code",
			fetched: map[int][]domain.SizeCount{
				101: {{Size: 9, Count: 2}},
			},
			last: map[int][]domain.StockRow{
				101: {
					{Code: 101, Size: 9, Count: 3, Rating: 5},
					{Code: 101, Size: 10, Count: 1, Rating: 5},
				},
			},
			want: stockDiff{
				updated: []domain.StockRow{
					{Code: 101, Size: 9, Count: 2, UpdatedAt: now, Rating: 6},
				},
				zeroedOut: []domain.StockRow{
					{Code: 101, Size: 10, Count: 0, UpdatedAt: now, Rating: 6},
				},
			},
		},
		{
			name: "already-zeroed size is not zeroed again",
			fetched: map[int][]domain.SizeCount{
				101: {{Size: 9, Count: 2}},
			},
			last: map[int][]domain.StockRow{
				101: {
					{Code: 101, Size: 9, Count: 3, Rating: 5},
					{Code: 101, Size: 10, Count: 0, Rating: 6},
				},
			},
			zeroCodes: map[int]struct{}{101: {}},
			want: stockDiff{
				updated: []domain.StockRow{
					{Code: 101, Size: 9, Count: 2, UpdatedAt: now, Rating: 6},
				},
			},
		},
		{
			name: "new size at a known code starts at baseline",
			fetched: map[int][]domain.SizeCount{
				101: {{Size: 9, Count: 3}, {Size: 10.5, Count: 4}},
			},
			last: map[int][]domain.StockRow{
				101: {{Code: 101, Size: 9, Count: 3, Rating: 5}},
			},
			want: stockDiff{
				firstSeen: []domain.StockRow{
					{Code: 101, Size: 10.5, Count: 4, UpdatedAt: now, Rating: 5},
				},
			},
		},
		{
			name: "unchanged counts produce no rows",
			fetched: map[int][]domain.SizeCount{
				101: {{Size: 9, Count: 3}},
			},
			last: map[int][]domain.StockRow{
				101: {{Code: 101, Size: 9, Count: 3, Rating: 5}},
			},
			want: stockDiff{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zeroCodes := tt.zeroCodes
			if zeroCodes == nil {
				zeroCodes = map[int]struct{}{}
			}
			got := diffStock(tt.fetched, tt.last, zeroCodes, 5, now)
			if !reflect.DeepEqual(got.firstSeen, tt.want.firstSeen) {
				t.Errorf("firstSeen = %+v, want %+v", got.firstSeen, tt.want.firstSeen)
			}
			if !reflect.DeepEqual(got.updated, tt.want.updated) {
				t.Errorf("updated = %+v, want %+v", got.updated, tt.want.updated)
			}
			if !reflect.DeepEqual(got.zeroedOut, tt.want.zeroedOut) {
				t.Errorf("zeroedOut = %+v, want %+v", got.zeroedOut, tt.want.zeroedOut)
			}
		})
	}
}

func TestInstockSynchronizer_Run(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2021, 8, 1, 12, 0, 0, 0, time.UTC)

	newSync := func(fetcher *mockFetcher, products *mockProductRepo, stock *mockStockRepo) *InstockSynchronizer {
		s := NewInstockSynchronizer(fetcher, products, stock, "nagornaya", 5)
		s.now = func() time.Time { return now }
		return s
	}

	t.Run("empty products table is nothing to do", func(t *testing.T) {
		fetcher := &mockFetcher{}
		s := newSync(fetcher, &mockProductRepo{}, &mockStockRepo{})

		ok, err := s.Run(ctx)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if ok {
			t.Error("Run() = true, want false for empty products table")
		}
		if len(fetcher.stockPairs) != 0 {
			t.Error("stock was fetched with nothing to check")
		}
	})

	t.Run("local ids are derived from product urls", func(t *testing.T) {
		fetcher := &mockFetcher{}
		products := &mockProductRepo{codeURLs: []domain.CodeURL{
			{Code: 101, URL: "https://shop.test/catalog/product/3094643/"},
			{Code: 102, URL: "https://shop.test/about/"}, // no local id: skipped
		}}
		s := newSync(fetcher, products, &mockStockRepo{})

		if _, err := s.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(fetcher.stockPairs) != 1 {
			t.Fatalf("stock fetch batches = %d, want 1", len(fetcher.stockPairs))
		}
		want := []domain.CodeLocalID{{Code: 101, LocalID: 3094643}}
		if !reflect.DeepEqual(fetcher.stockPairs[0], want) {
			t.Errorf("stock pairs = %+v, want %+v", fetcher.stockPairs[0], want)
		}
	})

	t.Run("other outlets in the snapshot are ignored", func(t *testing.T) {
		fetcher := &mockFetcher{stock: []domain.StockSnapshot{
			{Code: 101, Outlets: map[string][]domain.SizeCount{
				"timiryazevskaya": {{Size: 9, Count: 7}},
			}},
		}}
		products := &mockProductRepo{codeURLs: []domain.CodeURL{
			{Code: 101, URL: "https://shop.test/catalog/product/3094643/"},
		}}
		stock := &mockStockRepo{}
		s := newSync(fetcher, products, stock)

		if _, err := s.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(stock.appended) != 0 {
			t.Errorf("appended %d batches for a foreign outlet, want 0", len(stock.appended))
		}
	})

	t.Run("full reconciliation appends disjoint batches", func(t *testing.T) {
		fetcher := &mockFetcher{stock: []domain.StockSnapshot{
			{Code: 101, Outlets: map[string][]domain.SizeCount{
				"nagornaya": {{Size: 9, Count: 2}},
			}},
			{Code: 102, Outlets: map[string][]domain.SizeCount{
				"nagornaya": {{Size: 8, Count: 1}},
			}},
		}}
		products := &mockProductRepo{codeURLs: []domain.CodeURL{
			{Code: 101, URL: "https://shop.test/catalog/product/3094643/"},
			{Code: 102, URL: "https://shop.test/catalog/product/3094644/"},
		}}
		stock := &mockStockRepo{last: []domain.StockRow{
			{Code: 101, Size: 9, Count: 3, Rating: 5},
			{Code: 101, Size: 10, Count: 1, Rating: 5},
		}}
		s := newSync(fetcher, products, stock)

		ok, err := s.Run(ctx)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !ok {
			t.Fatal("Run() = false, want true")
		}
		if len(stock.appended) != 3 {
			t.Fatalf("appended %d batches, want 3", len(stock.appended))
		}
		wantFirstSeen := []domain.StockRow{{Code: 102, Size: 8, Count: 1, UpdatedAt: now, Rating: 5}}
		wantUpdated := []domain.StockRow{{Code: 101, Size: 9, Count: 2, UpdatedAt: now, Rating: 6}}
		wantZeroed := []domain.StockRow{{Code: 101, Size: 10, Count: 0, UpdatedAt: now, Rating: 6}}
		if !reflect.DeepEqual(stock.appended[0], wantFirstSeen) {
			t.Errorf("first-seen batch = %+v, want %+v", stock.appended[0], wantFirstSeen)
		}
		if !reflect.DeepEqual(stock.appended[1], wantUpdated) {
			t.Errorf("updated batch = %+v, want %+v", stock.appended[1], wantUpdated)
		}
		if !reflect.DeepEqual(stock.appended[2], wantZeroed) {
			t.Errorf("zeroed batch = %+v, want %+v", stock.appended[2], wantZeroed)
		}
	})

	t.Run("connectivity failure leaves the stock table untouched", func(t *testing.T) {
		fetcher := &mockFetcher{stockErr: fmt.Errorf("%w: timeout", domain.ErrConnectivity)}
		products := &mockProductRepo{codeURLs: []domain.CodeURL{
			{Code: 101, URL: "https://shop.test/catalog/product/3094643/"},
		}}
		stock := &mockStockRepo{}
		s := newSync(fetcher, products, stock)

		_, err := s.Run(ctx)
		if !errors.Is(err, domain.ErrConnectivity) {
			t.Fatalf("Run() error = %v, want ErrConnectivity", err)
		}
		if len(stock.appended) != 0 {
			t.Error("rows were appended despite the fetch failure")
		}
	})
}
