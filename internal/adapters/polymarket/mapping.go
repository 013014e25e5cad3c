package polymarket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// mapGammaMarket convierte un gammaMarket DTO a domain.Market,
// decodificando los arrays embebidos de outcomes, precios y tokens.
func mapGammaMarket(eventTitle string, gm gammaMarket) (domain.Market, error) {
	var outcomes, prices, tokenIDs []string
	if err := json.Unmarshal([]byte(gm.Outcomes), &outcomes); err != nil {
		return domain.Market{}, fmt.Errorf("outcomes %q: %w", gm.Outcomes, err)
	}
	if err := json.Unmarshal([]byte(gm.OutcomePrices), &prices); err != nil {
		return domain.Market{}, fmt.Errorf("outcomePrices %q: %w", gm.OutcomePrices, err)
	}
	if err := json.Unmarshal([]byte(gm.ClobTokenIDs), &tokenIDs); err != nil {
		return domain.Market{}, fmt.Errorf("clobTokenIds %q: %w", gm.ClobTokenIDs, err)
	}
	if len(outcomes) != 2 || len(prices) != 2 || len(tokenIDs) != 2 {
		return domain.Market{}, fmt.Errorf("market %s: not binary (%d outcomes)", gm.Slug, len(outcomes))
	}

	m := domain.Market{
		Slug:       gm.Slug,
		Question:   gm.Question,
		EventTitle: eventTitle,
		Active:     gm.Active,
		Closed:     gm.Closed,
	}

	if v, err := decimal.NewFromString(gm.Volume.String()); err == nil {
		m.Volume = v
	}

	for i := 0; i < 2; i++ {
		price, err := decimal.NewFromString(prices[i])
		if err != nil {
			return domain.Market{}, fmt.Errorf("market %s: price %q: %w", gm.Slug, prices[i], err)
		}
		m.Teams[i] = domain.Team{
			Name:    outcomes[i],
			TokenID: tokenIDs[i],
			Price:   price,
		}
	}

	start, err := parseGammaTime(gm.GameStartTime)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market %s: gameStartTime: %w", gm.Slug, err)
	}
	m.StartTime = start

	return m, nil
}

// parseGammaTime acepta los formatos de timestamp que usa Gamma:
// "2026-01-22 16:00:00+00", RFC3339 y variantes con milisegundos.
func parseGammaTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05-07",
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// mapPositions convierte las posiciones de la Data API a domain.Position.
// Las filas que no parsean se omiten.
func mapPositions(raw []dataPosition) []domain.Position {
	positions := make([]domain.Position, 0, len(raw))
	for _, r := range raw {
		size, err := decimal.NewFromString(r.Size.String())
		if err != nil {
			continue
		}
		avg, _ := decimal.NewFromString(r.AvgPrice.String())
		positions = append(positions, domain.Position{
			TokenID:    r.Asset,
			Size:       size,
			MarketSlug: r.Slug,
			Outcome:    r.Outcome,
			AvgPrice:   avg,
		})
	}
	return positions
}
