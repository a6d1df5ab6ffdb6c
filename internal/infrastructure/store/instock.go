package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoesync/backend/internal/domain"
)

// StockStore implements domain.StockRepository on the outlet-scoped
// append-only instock table.
type StockStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewStockStore creates a stock store for one outlet.
func NewStockStore(pool *pgxpool.Pool, outlet string) (*StockStore, error) {
	table, err := InstockTable(outlet)
	if err != nil {
		return nil, err
	}
	return &StockStore{pool: pool, table: table}, nil
}

// LastStock returns the most recently timestamped row per (code, size).
func (s *StockStore) LastStock(ctx context.Context) ([]domain.StockRow, error) {
	sql := fmt.Sprintf(
		`SELECT DISTINCT ON (code, size) code, size, count, updated_at, rating
		 FROM %s
		 ORDER BY code, size, updated_at DESC, id DESC`, s.table)
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query last stock: %w", err)
	}
	defer rows.Close()

	var out []domain.StockRow
	for rows.Next() {
		var r domain.StockRow
		if err := rows.Scan(&r.Code, &r.Size, &r.Count, &r.UpdatedAt, &r.Rating); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ZeroCountCodes returns codes whose latest per-size rows include a zero
// count, i.e. codes already flagged out of stock.
func (s *StockStore) ZeroCountCodes(ctx context.Context) ([]int, error) {
	sql := fmt.Sprintf(
		`SELECT DISTINCT code FROM (
			SELECT DISTINCT ON (code, size) code, count
			FROM %s
			ORDER BY code, size, updated_at DESC, id DESC
		 ) latest
		 WHERE count = 0`, s.table)
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query zero-count codes: %w", err)
	}
	defer rows.Close()

	var codes []int
	for rows.Next() {
		var code int
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan zero-count code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *StockStore) Append(ctx context.Context, stockRows []domain.StockRow) error {
	sql := fmt.Sprintf(
		`INSERT INTO %s (code, size, count, updated_at, rating) VALUES ($1,$2,$3,$4,$5)`,
		s.table)
	batch := &pgx.Batch{}
	for _, r := range stockRows {
		batch.Queue(sql, r.Code, r.Size, r.Count, r.UpdatedAt, r.Rating)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append stock rows: %w", err)
	}
	return nil
}
