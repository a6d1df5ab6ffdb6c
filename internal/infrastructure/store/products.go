package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoesync/backend/internal/domain"
)

// ProductStore implements domain.ProductRepository on the products table.
type ProductStore struct {
	pool     *pgxpool.Pool
	baseline int
}

// NewProductStore creates a product store; baseline is the configured
// normal rating used by the rating queries and resets.
func NewProductStore(pool *pgxpool.Pool, baseline int) *ProductStore {
	return &ProductStore{pool: pool, baseline: baseline}
}

func (s *ProductStore) Identifiers(ctx context.Context) ([]string, error) {
	return s.queryURLs(ctx, `SELECT url FROM products`)
}

func (s *ProductStore) IdentifiersBelowBaseline(ctx context.Context) ([]string, error) {
	return s.queryURLs(ctx, `SELECT url FROM products WHERE rating < $1`, s.baseline)
}

func (s *ProductStore) queryURLs(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query identifiers: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (s *ProductStore) CodeURLs(ctx context.Context) ([]domain.CodeURL, error) {
	rows, err := s.pool.Query(ctx, `SELECT code, url FROM products ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query code/url pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.CodeURL
	for rows.Next() {
		var p domain.CodeURL
		if err := rows.Scan(&p.Code, &p.URL); err != nil {
			return nil, fmt.Errorf("scan code/url pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *ProductStore) FlagVanished(ctx context.Context, urls []string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE products SET rating = 1, updated_at = now() WHERE url = ANY($1)`, urls)
	if err != nil {
		return fmt.Errorf("flag vanished: %w", err)
	}
	return nil
}

func (s *ProductStore) RestoreBaseline(ctx context.Context, urls []string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE products SET rating = $1, updated_at = now() WHERE url = ANY($2)`,
		s.baseline, urls)
	if err != nil {
		return fmt.Errorf("restore baseline: %w", err)
	}
	return nil
}

func (s *ProductStore) Insert(ctx context.Context, products []domain.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(
			`INSERT INTO products
				(code, brand, model, url, image, age_category, gender,
				 release_year, usage_tag, pronation, article, season,
				 updated_at, rating)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			 ON CONFLICT (code) DO NOTHING`,
			p.Code, p.Brand, p.Model, p.URL, p.Image, p.AgeCategory, p.Gender,
			p.ReleaseYear, p.Usage, p.Pronation, p.Article, p.Season,
			p.UpdatedAt, p.Rating)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	return nil
}
