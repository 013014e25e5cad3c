package storage

// sqlite.go — base SQLite compartida por ledger, cola y caché de precios.
//
// Tablas:
//   tracked_orders  — estado local de cada orden colocada en el CLOB
//   pending_markets — cola de admisión de mercados descubiertos
//   price_snapshots — precios pre-partido de escritura única
//
// Los precios y tamaños se guardan como TEXT: vienen de decimal.Decimal
// y un REAL perdería precisión en los límites de tick.

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracked_orders (
    order_id          TEXT PRIMARY KEY,   -- hash CLOB
    token_id          TEXT NOT NULL,
    market_slug       TEXT NOT NULL,
    side              TEXT NOT NULL,      -- BUY / SELL
    price             TEXT NOT NULL,
    size              TEXT NOT NULL,
    entry_number      INTEGER NOT NULL DEFAULT 0,
    reference_cents   REAL NOT NULL DEFAULT 0,
    placement_id      TEXT NOT NULL DEFAULT '',
    created_at        DATETIME NOT NULL,
    last_seen_at      DATETIME NOT NULL,
    disappeared_count INTEGER NOT NULL DEFAULT 0,
    status            TEXT NOT NULL DEFAULT 'active',
    recreated_as      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS tracked_orders_status ON tracked_orders(status);
CREATE INDEX IF NOT EXISTS tracked_orders_market ON tracked_orders(market_slug);
CREATE INDEX IF NOT EXISTS tracked_orders_token  ON tracked_orders(token_id);

CREATE TABLE IF NOT EXISTS pending_markets (
    slug             TEXT PRIMARY KEY,
    entry_time       TEXT NOT NULL,      -- RFC3339
    match_start_time TEXT NOT NULL,      -- RFC3339
    discovered_at    DATETIME NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending',
    entered_at       DATETIME
);

CREATE INDEX IF NOT EXISTS pending_markets_status ON pending_markets(status);

CREATE TABLE IF NOT EXISTS price_snapshots (
    market_slug TEXT NOT NULL,
    token_id    TEXT NOT NULL,
    price       TEXT NOT NULL,
    label       TEXT NOT NULL DEFAULT '',
    cached_at   DATETIME NOT NULL,
    PRIMARY KEY (market_slug, token_id)
);
`

// SQLiteStore implementa ports.OrderLedger, ports.AdmissionQueue y
// ports.PriceCache sobre una única base SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada y
// aplica el schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
