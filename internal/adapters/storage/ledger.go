package storage

// ledger.go — persistencia del ciclo de vida de órdenes.
//
// La monotonía de estados se garantiza en SQL: cada UPDATE lleva un
// predicado sobre status, así dos ticks concurrentes o un reintento
// nunca resucitan una orden terminal.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// Track inserta la orden como active. Reinsertar un order_id existente
// no lo modifica: el primer registro gana.
func (s *SQLiteStore) Track(ctx context.Context, o domain.TrackedOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO tracked_orders
		  (order_id, token_id, market_slug, side, price, size, entry_number,
		   reference_cents, placement_id, created_at, last_seen_at,
		   disappeared_count, status, recreated_as)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,0,'active','')`,
		o.OrderID, o.TokenID, o.MarketSlug, string(o.Side),
		o.Price.String(), o.Size.String(), o.EntryNumber,
		o.ReferenceCents, o.PlacementID, o.CreatedAt.UTC(), o.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.Track: %s: %w", o.OrderID, err)
	}
	return nil
}

// ObservePresent resetea el contador y reactiva órdenes disappeared.
// Las terminales no cambian aunque el venue aún las liste.
func (s *SQLiteStore) ObservePresent(ctx context.Context, orderID string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tracked_orders
		SET disappeared_count = 0, last_seen_at = ?, status = 'active'
		WHERE order_id = ? AND status IN ('active','disappeared')`,
		seenAt.UTC(), orderID,
	)
	if err != nil {
		return fmt.Errorf("storage.ObservePresent: %s: %w", orderID, err)
	}
	return nil
}

// ObserveAbsent incrementa el contador; al llegar a threshold la orden
// pasa a disappeared. Idempotente sobre órdenes ya disappeared o terminales.
func (s *SQLiteStore) ObserveAbsent(ctx context.Context, orderID string, threshold int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tracked_orders
		SET disappeared_count = disappeared_count + 1,
		    status = CASE WHEN disappeared_count + 1 >= ? THEN 'disappeared' ELSE status END
		WHERE order_id = ? AND status IN ('active','disappeared')`,
		threshold, orderID,
	)
	if err != nil {
		return fmt.Errorf("storage.ObserveAbsent: %s: %w", orderID, err)
	}
	return nil
}

// MarkFilled mueve la orden a filled desde cualquier estado abierto.
func (s *SQLiteStore) MarkFilled(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tracked_orders SET status = 'filled'
		WHERE order_id = ? AND status IN ('active','disappeared')`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("storage.MarkFilled: %s: %w", orderID, err)
	}
	return nil
}

// MarkRecreated mueve la orden a recreated, solo desde disappeared, y
// enlaza la orden de reemplazo.
func (s *SQLiteStore) MarkRecreated(ctx context.Context, orderID, newOrderID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tracked_orders SET status = 'recreated', recreated_as = ?
		WHERE order_id = ? AND status = 'disappeared'`,
		newOrderID, orderID,
	)
	if err != nil {
		return fmt.Errorf("storage.MarkRecreated: %s: %w", orderID, err)
	}
	return nil
}

// MarkCancelled mueve la orden a cancelled desde cualquier estado abierto.
func (s *SQLiteStore) MarkCancelled(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tracked_orders SET status = 'cancelled'
		WHERE order_id = ? AND status IN ('active','disappeared')`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("storage.MarkCancelled: %s: %w", orderID, err)
	}
	return nil
}

// OpenOrders devuelve las órdenes que participan en el check de desaparición.
func (s *SQLiteStore) OpenOrders(ctx context.Context) ([]domain.TrackedOrder, error) {
	return s.queryOrders(ctx, `WHERE status IN ('active','disappeared')`)
}

// DisappearedOrders devuelve las órdenes pendientes de reconciliar.
func (s *SQLiteStore) DisappearedOrders(ctx context.Context) ([]domain.TrackedOrder, error) {
	return s.queryOrders(ctx, `WHERE status = 'disappeared'`)
}

// OrdersByMarket devuelve todas las órdenes de un mercado.
func (s *SQLiteStore) OrdersByMarket(ctx context.Context, slug string) ([]domain.TrackedOrder, error) {
	return s.queryOrders(ctx, `WHERE market_slug = ?`, slug)
}

// SellSharesForToken suma los tamaños de las ventas abiertas de un
// token. Solo cuentan active y disappeared: una venta filled ya redujo
// la posición, y una recreated tiene su reemplazo active en el libro.
func (s *SQLiteStore) SellSharesForToken(ctx context.Context, tokenID string) (float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT size FROM tracked_orders
		WHERE token_id = ? AND side = 'SELL' AND status IN ('active','disappeared')`,
		tokenID,
	)
	if err != nil {
		return 0, fmt.Errorf("storage.SellSharesForToken: %s: %w", tokenID, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var sizeStr string
		if err := rows.Scan(&sizeStr); err != nil {
			return 0, fmt.Errorf("storage.SellSharesForToken: scan: %w", err)
		}
		size, err := decimal.NewFromString(sizeStr)
		if err != nil {
			return 0, fmt.Errorf("storage.SellSharesForToken: size %q: %w", sizeStr, err)
		}
		total = total.Add(size)
	}
	return total.InexactFloat64(), rows.Err()
}

// DeleteByMarket elimina todas las órdenes de un mercado terminado.
func (s *SQLiteStore) DeleteByMarket(ctx context.Context, slug string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracked_orders WHERE market_slug = ?`, slug)
	if err != nil {
		return 0, fmt.Errorf("storage.DeleteByMarket: %s: %w", slug, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Prune elimina órdenes terminales anteriores a cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM tracked_orders
		WHERE status IN ('filled','recreated','cancelled') AND created_at < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.Prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) queryOrders(ctx context.Context, where string, args ...any) ([]domain.TrackedOrder, error) {
	q := `SELECT order_id, token_id, market_slug, side, price, size, entry_number,
	             reference_cents, placement_id, created_at, last_seen_at,
	             disappeared_count, status, recreated_as
	      FROM tracked_orders ` + where + ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.queryOrders: %w", err)
	}
	defer rows.Close()

	var orders []domain.TrackedOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(rows *sql.Rows) (domain.TrackedOrder, error) {
	var o domain.TrackedOrder
	var side, priceStr, sizeStr, status string

	err := rows.Scan(
		&o.OrderID, &o.TokenID, &o.MarketSlug, &side, &priceStr, &sizeStr,
		&o.EntryNumber, &o.ReferenceCents, &o.PlacementID,
		&o.CreatedAt, &o.LastSeenAt, &o.DisappearedCount, &status, &o.RecreatedAs,
	)
	if err != nil {
		return o, fmt.Errorf("storage.scanOrder: %w", err)
	}

	o.Side = domain.Side(side)
	o.Status = domain.OrderStatus(status)
	if o.Price, err = decimal.NewFromString(priceStr); err != nil {
		return o, fmt.Errorf("storage.scanOrder: price %q: %w", priceStr, err)
	}
	if o.Size, err = decimal.NewFromString(sizeStr); err != nil {
		return o, fmt.Errorf("storage.scanOrder: size %q: %w", sizeStr, err)
	}
	return o, nil
}
