package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CachedPrice es un snapshot de precio pre-partido, escrito una sola
// vez por (mercado, token). Sirve de referencia estable para las
// decisiones de salida: el precio en vivo durante el partido no
// refleja la fuerza relativa de los equipos al inicio.
type CachedPrice struct {
	MarketSlug string
	TokenID    string
	Price      decimal.Decimal
	Label      string // nombre del equipo, solo informativo
	CachedAt   time.Time
}

// strongCents devuelve el mayor precio del conjunto en centavos.
func strongCents(prices []CachedPrice) float64 {
	maxC := 0.0
	for _, p := range prices {
		if c := p.Price.InexactFloat64() * 100; c > maxC {
			maxC = c
		}
	}
	return maxC
}

// ExitReference son los precios de referencia resueltos para decidir
// la venta de una posición.
type ExitReference struct {
	EntryCents  float64 // precio de entrada del token en centavos
	StrongCents float64 // precio del equipo fuerte del mercado en centavos
	Source      string  // "cache" o "ledger"
}

// ReferenceFromCache construye la referencia de salida a partir de los
// snapshots cacheados de un mercado. El token vendido aporta el precio
// de entrada; el fuerte es el máximo entre los tokens del mercado.
// Devuelve false si no hay snapshot para el token.
func ReferenceFromCache(prices []CachedPrice, tokenID string) (ExitReference, bool) {
	var entry float64
	found := false
	for _, p := range prices {
		if p.TokenID == tokenID {
			entry = p.Price.InexactFloat64() * 100
			found = true
			break
		}
	}
	if !found {
		return ExitReference{}, false
	}
	return ExitReference{
		EntryCents:  entry,
		StrongCents: strongCents(prices),
		Source:      "cache",
	}, true
}
