package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

const (
	gammaEventsPath  = "/events"
	gammaMarketsPath = "/markets"

	// series 10311 = League of Legends en Gamma
	lolSeriesID = "10311"

	// ventana de seguimiento alrededor del inicio del partido
	scanLookahead = 24 * time.Hour
	scanLookback  = 60 * time.Minute
)

var (
	minEventVolume = decimal.NewFromInt(1000)
	// suma máxima de ambos equipos en centavos; por encima el libro
	// está demasiado caro para el escalonado de entradas
	maxTotalCents = decimal.NewFromInt(110)
	// precio mínimo del favorito: por debajo no hay señal de fuerza
	minStrongCents = decimal.NewFromInt(60)

	decidedHigh = decimal.RequireFromString("0.99")
	decidedLow  = decimal.RequireFromString("0.01")
)

// mercados por juego, handicaps y props: no son match winner
var skipKeywords = []string{
	"Game 1", "Game 2", "Game 3",
	"Game Handicap", "Games Total",
	"O/U", "Over/Under",
	"Map ", "First Blood", "First Tower",
}

// Scan devuelve los mercados match-winner BO3/BO5 operables: eventos
// LoL con volumen suficiente, partido no decidido y hora de inicio
// dentro de [now-60min, now+24h].
func (c *Client) Scan(ctx context.Context, now time.Time) ([]domain.Market, error) {
	u := fmt.Sprintf("%s%s?series_id=%s&active=true&closed=false&limit=200",
		c.gammaBase, gammaEventsPath, lolSeriesID)

	var events []gammaEvent
	if err := c.get(ctx, c.gammaLimiter, u, &events); err != nil {
		return nil, fmt.Errorf("polymarket.Scan: fetch events: %w", err)
	}

	var markets []domain.Market
	for _, ev := range events {
		vol, err := decimal.NewFromString(ev.Volume.String())
		if err != nil || vol.LessThan(minEventVolume) {
			continue
		}

		// si el Game 2 del evento ya está decidido, el partido va por
		// el juego 3 o terminó: demasiado tarde para entrar
		if eventPastGame2(ev) {
			continue
		}

		for _, gm := range ev.Markets {
			m, ok := c.filterMarket(ev.Title, gm, now)
			if ok {
				markets = append(markets, m)
			}
		}
	}

	slog.Debug("lol scan complete", "events", len(events), "markets", len(markets))
	return markets, nil
}

// filterMarket aplica los filtros de match winner sobre un mercado del evento.
func (c *Client) filterMarket(eventTitle string, gm gammaMarket, now time.Time) (domain.Market, bool) {
	for _, kw := range skipKeywords {
		if strings.Contains(gm.Question, kw) {
			return domain.Market{}, false
		}
	}
	q := strings.ToLower(gm.Question)
	if !strings.Contains(q, "(bo3") && !strings.Contains(q, "(bo5") {
		return domain.Market{}, false
	}

	m, err := mapGammaMarket(eventTitle, gm)
	if err != nil {
		slog.Debug("skipping unmappable market", "slug", gm.Slug, "err", err)
		return domain.Market{}, false
	}

	// ventana temporal sobre la hora real de inicio
	if m.StartTime.After(now.Add(scanLookahead)) || m.StartTime.Before(now.Add(-scanLookback)) {
		return domain.Market{}, false
	}

	pA, pB := m.Teams[0].Price, m.Teams[1].Price
	totalCents := pA.Add(pB).Mul(decimal.NewFromInt(100))
	if totalCents.GreaterThan(maxTotalCents) {
		return domain.Market{}, false
	}

	// patrones de partido decidido o en vivo
	maxP, minP := pA, pB
	if pB.GreaterThan(pA) {
		maxP, minP = pB, pA
	}
	if maxP.Mul(decimal.NewFromInt(100)).LessThan(minStrongCents) {
		return domain.Market{}, false
	}
	if maxP.GreaterThanOrEqual(decidedHigh) && minP.LessThanOrEqual(decidedLow) {
		return domain.Market{}, false
	}
	if isExtreme(pA) && isExtreme(pB) {
		return domain.Market{}, false
	}

	return m, true
}

// eventPastGame2 detecta si el Game 2 del evento ya se decidió.
func eventPastGame2(ev gammaEvent) bool {
	for _, gm := range ev.Markets {
		if !strings.Contains(gm.Question, "Game 2") {
			continue
		}
		m, err := mapGammaMarket(ev.Title, gm)
		if err != nil {
			continue
		}
		pA, pB := m.Teams[0].Price, m.Teams[1].Price
		maxP, minP := pA, pB
		if pB.GreaterThan(pA) {
			maxP, minP = pB, pA
		}
		if maxP.GreaterThanOrEqual(decidedHigh) && minP.LessThanOrEqual(decidedLow) {
			return true
		}
	}
	return false
}

func isExtreme(p decimal.Decimal) bool {
	return p.IsZero() || p.Equal(decimal.NewFromInt(1))
}

// MarketBySlug devuelve un mercado concreto con precios actuales.
func (c *Client) MarketBySlug(ctx context.Context, slug string) (domain.Market, error) {
	u := fmt.Sprintf("%s%s?slug=%s", c.gammaBase, gammaMarketsPath, url.QueryEscape(slug))

	var resp gammaMarketsResponse
	if err := c.get(ctx, c.gammaLimiter, u, &resp); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket.MarketBySlug: %s: %w", slug, err)
	}
	if len(resp) == 0 {
		return domain.Market{}, fmt.Errorf("polymarket.MarketBySlug: %s: not found", slug)
	}

	m, err := mapGammaMarket("", resp[0])
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket.MarketBySlug: %s: %w", slug, err)
	}
	return m, nil
}

// IsMarketActive consulta si el mercado sigue aceptando órdenes.
// Devuelve error en fallos de red: el caller no debe tratar un error
// como mercado terminado.
func (c *Client) IsMarketActive(ctx context.Context, slug string) (bool, error) {
	u := fmt.Sprintf("%s%s?slug=%s", c.gammaBase, gammaMarketsPath, url.QueryEscape(slug))

	var resp gammaMarketsResponse
	if err := c.get(ctx, c.gammaLimiter, u, &resp); err != nil {
		return false, fmt.Errorf("polymarket.IsMarketActive: %s: %w", slug, err)
	}
	if len(resp) == 0 {
		return false, nil
	}
	gm := resp[0]
	return gm.Active && !gm.Closed, nil
}
