package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// MarketFeed descubre mercados moneyline de LoL desde la Gamma API.
type MarketFeed interface {
	// Scan devuelve los mercados binarios operables cuya hora de inicio
	// cae dentro de [now-lookback, now+lookahead].
	Scan(ctx context.Context, now time.Time) ([]domain.Market, error)

	// MarketBySlug devuelve un mercado concreto con precios actuales.
	MarketBySlug(ctx context.Context, slug string) (domain.Market, error)

	// IsMarketActive consulta si el mercado sigue aceptando órdenes.
	// Un error de red no implica mercado terminado: el caller solo debe
	// actuar sobre un false con err == nil.
	IsMarketActive(ctx context.Context, slug string) (bool, error)
}
