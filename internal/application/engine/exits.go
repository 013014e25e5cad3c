package engine

// exits.go — take-profit sells against the account's positions.
//
// Positions come from the Data API and open sell orders from the
// ledger; the unsold remainder of a position is what we still need
// to cover. Markets in the excluded set are managed by hand and never
// get automated sells.
// Reference prices come from the pre-match snapshot, falling back to
// the entry reference stored with the original buy. With neither, the
// position is left to manual management.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/lolbot/internal/domain"
	"github.com/alejandrodnm/lolbot/internal/strategy"
)

// dustShares, as an exact decimal for position arithmetic
var dustLimit = decimal.NewFromFloat(dustShares)

func (e *Engine) placeExits(ctx context.Context, now time.Time, report *domain.TickReport) {
	positions, err := e.trader.GetPositions(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: load positions: %w", err))
		return
	}

	// sells placed earlier in this same tick, not yet in the ledger
	soldThisTick := make(map[string]decimal.Decimal)

	for _, pos := range positions {
		if e.excluded[pos.MarketSlug] {
			continue
		}
		if pos.Size.LessThanOrEqual(dustLimit) {
			continue
		}
		if err := e.exitPosition(ctx, now, pos, soldThisTick, report); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: exit %s: %w", pos.MarketSlug, err))
		}
	}
}

func (e *Engine) exitPosition(
	ctx context.Context,
	now time.Time,
	pos domain.Position,
	soldThisTick map[string]decimal.Decimal,
	report *domain.TickReport,
) error {
	sold, err := e.ledger.SellSharesForToken(ctx, pos.TokenID)
	if err != nil {
		return fmt.Errorf("sell shares: %w", err)
	}
	unsold := pos.Size.Sub(decimal.NewFromFloat(sold)).Sub(soldThisTick[pos.TokenID])
	if unsold.LessThanOrEqual(dustLimit) {
		return nil
	}

	orders, err := e.ledger.OrdersByMarket(ctx, pos.MarketSlug)
	if err != nil {
		return fmt.Errorf("ledger lookup: %w", err)
	}

	ref, ok, err := e.exitReference(ctx, pos, orders)
	if err != nil {
		return err
	}
	if !ok {
		report.ManualSkips = append(report.ManualSkips, pos.MarketSlug)
		slog.Warn("no reference price, leaving position to manual management",
			"slug", pos.MarketSlug, "token", pos.TokenID)
		return nil
	}

	price, sell := strategy.ExitPrice(ref, tiersFilled(orders, pos.TokenID))
	if !sell {
		return nil
	}

	shares := unsold.Round(2)
	placed, err := e.trader.PlaceOrder(ctx, domain.PlaceOrderRequest{
		TokenID: pos.TokenID,
		Side:    domain.SideSell,
		Price:   price,
		Size:    shares,
	})
	if err != nil {
		return fmt.Errorf("place sell: %w", err)
	}

	tracked := domain.TrackedOrder{
		OrderID:        placed.OrderID,
		TokenID:        pos.TokenID,
		MarketSlug:     pos.MarketSlug,
		Side:           domain.SideSell,
		Price:          price,
		Size:           shares,
		ReferenceCents: ref.StrongCents,
		CreatedAt:      now,
		LastSeenAt:     now,
		Status:         domain.StatusActive,
	}
	if err := e.ledger.Track(ctx, tracked); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: track sell %s: %w", placed.OrderID, err))
	}

	soldThisTick[pos.TokenID] = soldThisTick[pos.TokenID].Add(shares)
	report.SellsPlaced = append(report.SellsPlaced, domain.SellPlaced{
		OrderID:    placed.OrderID,
		MarketSlug: pos.MarketSlug,
		TokenID:    pos.TokenID,
		Shares:     shares.String(),
		Price:      price.String(),
	})
	slog.Info("take-profit placed",
		"slug", pos.MarketSlug,
		"token", pos.TokenID,
		"shares", shares.String(),
		"price", price.String(),
		"source", ref.Source,
	)
	return nil
}

// exitReference resolves the pre-match reference prices for a position,
// preferring the snapshot cache over the reference stored in the ledger.
func (e *Engine) exitReference(ctx context.Context, pos domain.Position, orders []domain.TrackedOrder) (domain.ExitReference, bool, error) {
	snap, err := e.prices.ForMarket(ctx, pos.MarketSlug)
	if err != nil {
		return domain.ExitReference{}, false, fmt.Errorf("price cache: %w", err)
	}
	if ref, ok := domain.ReferenceFromCache(snap, pos.TokenID); ok {
		return ref, true, nil
	}

	for _, o := range orders {
		if o.Side != domain.SideBuy || o.TokenID != pos.TokenID || o.ReferenceCents <= 0 {
			continue
		}
		return domain.ExitReference{
			EntryCents:  o.Price.InexactFloat64() * 100,
			StrongCents: o.ReferenceCents,
			Source:      "ledger",
		}, true, nil
	}
	return domain.ExitReference{}, false, nil
}

// tiersFilled counts the distinct entry tiers whose buys filled for a
// token. The 61..75 exit rule only sells once both tiers are in.
func tiersFilled(orders []domain.TrackedOrder, tokenID string) int {
	seen := make(map[int]bool)
	for _, o := range orders {
		if o.Side == domain.SideBuy && o.TokenID == tokenID &&
			o.Status == domain.StatusFilled && o.EntryNumber > 0 {
			seen[o.EntryNumber] = true
		}
	}
	return len(seen)
}
