package storage

// queue.go — cola de admisión de mercados descubiertos.
//
// entry_time y match_start_time se guardan como TEXT RFC3339 y se
// parsean al leer: una fila con timestamps corruptos se elimina en
// ExpireStale en vez de bloquear la cola (fail-safe).

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// Enqueue añade el mercado como pending. Re-encolar un slug existente
// se ignora: la primera observación fija la ventana de entrada.
func (s *SQLiteStore) Enqueue(ctx context.Context, opp domain.QueuedOpportunity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO pending_markets
		  (slug, entry_time, match_start_time, discovered_at, status)
		VALUES (?,?,?,?,'pending')`,
		opp.Slug,
		opp.EntryTime.UTC().Format(time.RFC3339),
		opp.MatchStartTime.UTC().Format(time.RFC3339),
		opp.DiscoveredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.Enqueue: %s: %w", opp.Slug, err)
	}
	return nil
}

// Due devuelve las oportunidades pending con ventana abierta en now.
// El filtrado temporal se hace en Go tras parsear: las filas con
// timestamps que no parsean se omiten (ExpireStale las eliminará).
func (s *SQLiteStore) Due(ctx context.Context, now time.Time, grace time.Duration) ([]domain.QueuedOpportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, entry_time, match_start_time, discovered_at
		FROM pending_markets
		WHERE status = 'pending'
		ORDER BY entry_time ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.Due: %w", err)
	}
	defer rows.Close()

	var due []domain.QueuedOpportunity
	for rows.Next() {
		var slug, entryStr, startStr string
		var discovered time.Time
		if err := rows.Scan(&slug, &entryStr, &startStr, &discovered); err != nil {
			return nil, fmt.Errorf("storage.Due: scan: %w", err)
		}

		entry, err1 := time.Parse(time.RFC3339, entryStr)
		start, err2 := time.Parse(time.RFC3339, startStr)
		if err1 != nil || err2 != nil {
			continue
		}

		opp := domain.QueuedOpportunity{
			Slug:           slug,
			EntryTime:      entry,
			MatchStartTime: start,
			DiscoveredAt:   discovered,
			Status:         domain.QueuePending,
		}
		if opp.Ready(now, grace) {
			due = append(due, opp)
		}
	}
	return due, rows.Err()
}

// MarkEntered marca la oportunidad como entrada.
func (s *SQLiteStore) MarkEntered(ctx context.Context, slug string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pending_markets SET status = 'entered', entered_at = ?
		WHERE slug = ? AND status = 'pending'`,
		at.UTC(), slug,
	)
	if err != nil {
		return fmt.Errorf("storage.MarkEntered: %s: %w", slug, err)
	}
	return nil
}

// ExpireStale elimina las oportunidades pasadas de match_start + horizon
// y las filas con timestamps que no parsean.
func (s *SQLiteStore) ExpireStale(ctx context.Context, now time.Time, horizon time.Duration) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, match_start_time FROM pending_markets`)
	if err != nil {
		return 0, fmt.Errorf("storage.ExpireStale: %w", err)
	}

	var toDelete []string
	for rows.Next() {
		var slug, startStr string
		if err := rows.Scan(&slug, &startStr); err != nil {
			rows.Close()
			return 0, fmt.Errorf("storage.ExpireStale: scan: %w", err)
		}
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil || now.After(start.Add(horizon)) {
			toDelete = append(toDelete, slug)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, slug := range toDelete {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_markets WHERE slug = ?`, slug); err != nil {
			return 0, fmt.Errorf("storage.ExpireStale: delete %s: %w", slug, err)
		}
	}
	return len(toDelete), nil
}

// Remove elimina el slug de la cola, en cualquier estado.
func (s *SQLiteStore) Remove(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_markets WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("storage.Remove: %s: %w", slug, err)
	}
	return nil
}

// Contains indica si el slug ya está en cola, en cualquier estado.
func (s *SQLiteStore) Contains(ctx context.Context, slug string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_markets WHERE slug = ?`, slug,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("storage.Contains: %s: %w", slug, err)
	}
	return n > 0, nil
}
