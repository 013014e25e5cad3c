package engine

// placement.go — entry placement for markets whose admission window
// just opened.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/lolbot/internal/domain"
	"github.com/alejandrodnm/lolbot/internal/strategy"
)

// admit places the tiered entry orders for every queued market whose
// window is open at now. Each market is entered at most once: a market
// with open buy orders in the ledger or a pre-existing token balance is
// marked entered without placing anything.
func (e *Engine) admit(ctx context.Context, now time.Time, report *domain.TickReport) error {
	due, err := e.queue.Due(ctx, now, e.cfg.Grace)
	if err != nil {
		return err
	}

	for _, opp := range due {
		if e.excluded[opp.Slug] {
			if err := e.queue.MarkEntered(ctx, opp.Slug, now); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("engine: mark excluded %s: %w", opp.Slug, err))
			}
			continue
		}
		if err := e.enterMarket(ctx, now, opp, report); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: enter %s: %w", opp.Slug, err))
		}
	}
	return nil
}

func (e *Engine) enterMarket(ctx context.Context, now time.Time, opp domain.QueuedOpportunity, report *domain.TickReport) error {
	m, err := e.feed.MarketBySlug(ctx, opp.Slug)
	if err != nil {
		// leave pending: the grace window gives the next ticks a chance
		return fmt.Errorf("fetch market: %w", err)
	}

	already, err := e.alreadyEntered(ctx, m)
	if err != nil {
		return err
	}
	if already {
		slog.Info("market already entered, skipping", "slug", m.Slug)
		return e.queue.MarkEntered(ctx, m.Slug, now)
	}

	// entry prices come from the pre-match snapshot when we have one:
	// live prices right before the match can already be distorted
	if snap, err := e.prices.ForMarket(ctx, m.Slug); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: read price cache %s: %w", m.Slug, err))
	} else if len(snap) > 0 {
		applySnapshot(&m, snap)
	}

	strongCents, _ := m.Strong().Price.Mul(decimal.NewFromInt(100)).Float64()
	orders := strategy.CalculateOrders(m, decimal.NewFromFloat(e.cfg.EntryUSD))
	if len(orders) == 0 {
		slog.Warn("no entry tier for price, skipping market",
			"slug", m.Slug, "strongCents", strongCents)
		return e.queue.MarkEntered(ctx, m.Slug, now)
	}
	placementID := uuid.NewString()

	placedAny := false
	for _, o := range orders {
		placed, err := e.trader.PlaceOrder(ctx, domain.PlaceOrderRequest{
			TokenID: o.Team.TokenID,
			Side:    domain.SideBuy,
			Price:   o.Price,
			Size:    o.Shares,
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: place entry %d on %s: %w", o.EntryNumber, m.Slug, err))
			continue
		}
		placedAny = true
		report.EntriesPlaced++
		report.EntryOrderIDs = append(report.EntryOrderIDs, placed.OrderID)

		tracked := domain.TrackedOrder{
			OrderID:        placed.OrderID,
			TokenID:        o.Team.TokenID,
			MarketSlug:     m.Slug,
			Side:           domain.SideBuy,
			Price:          o.Price,
			Size:           o.Shares,
			EntryNumber:    o.EntryNumber,
			ReferenceCents: strongCents,
			PlacementID:    placementID,
			CreatedAt:      now,
			LastSeenAt:     now,
			Status:         domain.StatusActive,
		}
		if err := e.ledger.Track(ctx, tracked); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: track %s: %w", placed.OrderID, err))
		}
		slog.Info("entry placed",
			"slug", m.Slug,
			"team", o.Team.Name,
			"price", o.Price.String(),
			"shares", o.Shares.String(),
			"entry", o.EntryNumber,
			"order", placed.OrderID,
		)
	}

	if !placedAny {
		// both placements failed; keep the opportunity pending
		return nil
	}
	return e.queue.MarkEntered(ctx, m.Slug, now)
}

// alreadyEntered reports whether the account already has exposure to
// the market: open buy orders in the ledger or shares on-chain.
func (e *Engine) alreadyEntered(ctx context.Context, m domain.Market) (bool, error) {
	orders, err := e.ledger.OrdersByMarket(ctx, m.Slug)
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	for _, o := range orders {
		if o.Side == domain.SideBuy && o.Open() {
			return true, nil
		}
	}
	for _, team := range m.Teams {
		bal, err := e.trader.TokenBalance(ctx, team.TokenID)
		if err != nil {
			return false, fmt.Errorf("token balance %s: %w", team.TokenID, err)
		}
		if bal > entryBalanceEpsilon {
			return true, nil
		}
	}
	return false, nil
}

// applySnapshot overwrites the live team prices with the cached
// pre-match ones when present.
func applySnapshot(m *domain.Market, snap []domain.CachedPrice) {
	for i := range m.Teams {
		for _, p := range snap {
			if p.TokenID == m.Teams[i].TokenID {
				m.Teams[i].Price = p.Price
				break
			}
		}
	}
}
