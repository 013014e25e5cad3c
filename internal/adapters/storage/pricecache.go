package storage

// pricecache.go — snapshots de precio pre-partido.
//
// Escritura única vía INSERT OR IGNORE sobre la PK (market_slug,
// token_id): el primer snapshot gana y los siguientes se descartan
// en silencio, también entre procesos concurrentes.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// Put guarda el snapshot si no existe ya uno para (slug, token).
func (s *SQLiteStore) Put(ctx context.Context, p domain.CachedPrice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO price_snapshots
		  (market_slug, token_id, price, label, cached_at)
		VALUES (?,?,?,?,?)`,
		p.MarketSlug, p.TokenID, p.Price.String(), p.Label, p.CachedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.Put: %s/%s: %w", p.MarketSlug, p.TokenID, err)
	}
	return nil
}

// Get devuelve el snapshot de un token y si existe.
func (s *SQLiteStore) Get(ctx context.Context, slug, tokenID string) (domain.CachedPrice, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT market_slug, token_id, price, label, cached_at
		FROM price_snapshots WHERE market_slug = ? AND token_id = ?`,
		slug, tokenID,
	)
	p, err := scanPrice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CachedPrice{}, false, nil
	}
	if err != nil {
		return domain.CachedPrice{}, false, fmt.Errorf("storage.Get: %s/%s: %w", slug, tokenID, err)
	}
	return p, true, nil
}

// ForMarket devuelve todos los snapshots de un mercado.
func (s *SQLiteStore) ForMarket(ctx context.Context, slug string) ([]domain.CachedPrice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_slug, token_id, price, label, cached_at
		FROM price_snapshots WHERE market_slug = ?`,
		slug,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.ForMarket: %s: %w", slug, err)
	}
	defer rows.Close()

	var prices []domain.CachedPrice
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ForMarket: %s: %w", slug, err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// HasMarket indica si el mercado tiene algún snapshot.
func (s *SQLiteStore) HasMarket(ctx context.Context, slug string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM price_snapshots WHERE market_slug = ?`, slug,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("storage.HasMarket: %s: %w", slug, err)
	}
	return n > 0, nil
}

// ClearMarket elimina los snapshots de un mercado terminado.
func (s *SQLiteStore) ClearMarket(ctx context.Context, slug string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM price_snapshots WHERE market_slug = ?`, slug,
	); err != nil {
		return fmt.Errorf("storage.ClearMarket: %s: %w", slug, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrice(row rowScanner) (domain.CachedPrice, error) {
	var p domain.CachedPrice
	var priceStr string
	if err := row.Scan(&p.MarketSlug, &p.TokenID, &priceStr, &p.Label, &p.CachedAt); err != nil {
		return p, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(priceStr); err != nil {
		return p, fmt.Errorf("price %q: %w", priceStr, err)
	}
	return p, nil
}
