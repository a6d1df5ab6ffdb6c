package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoesync/backend/internal/domain"
)

// PriceStore implements domain.PriceRepository on the append-only prices
// table.
type PriceStore struct {
	pool *pgxpool.Pool
}

func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// LastPrices returns the most recently timestamped price row per code.
func (s *PriceStore) LastPrices(ctx context.Context) ([]domain.PriceRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (code) code, price, updated_at, rating
		 FROM prices
		 ORDER BY code, updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query last prices: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceRow
	for rows.Next() {
		var r domain.PriceRow
		if err := rows.Scan(&r.Code, &r.Price, &r.UpdatedAt, &r.Rating); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PriceStore) Append(ctx context.Context, priceRows []domain.PriceRow) error {
	batch := &pgx.Batch{}
	for _, r := range priceRows {
		batch.Queue(
			`INSERT INTO prices (code, price, updated_at, rating) VALUES ($1,$2,$3,$4)`,
			r.Code, r.Price, r.UpdatedAt, r.Rating)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append prices: %w", err)
	}
	return nil
}
