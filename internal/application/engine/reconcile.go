package engine

// reconcile.go — disappearance detection and safe recreation.
//
// The CLOB silently drops resting orders, so presence in the open-order
// snapshot is the only liveness signal we get. An absent order is not
// acted on until it has been absent DisappearThreshold consecutive
// ticks, and even then the engine first rules out the two benign
// explanations: the market ended, or the order filled.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// syncOrders compares the ledger against the venue's open-order
// snapshot and updates presence counters.
func (e *Engine) syncOrders(ctx context.Context, now time.Time, report *domain.TickReport) error {
	open, err := e.trader.GetOpenOrders(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(open))
	for _, o := range open {
		present[o.OrderID] = true
	}

	tracked, err := e.ledger.OpenOrders(ctx)
	if err != nil {
		return err
	}
	report.OrdersChecked = len(tracked)

	for _, o := range tracked {
		if present[o.OrderID] {
			err = e.ledger.ObservePresent(ctx, o.OrderID, now)
		} else {
			err = e.ledger.ObserveAbsent(ctx, o.OrderID, e.cfg.DisappearThreshold)
		}
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: observe %s: %w", o.OrderID, err))
		}
	}
	return nil
}

// reconcile resolves every disappeared order: ended market → remove,
// shares on-chain → filled, otherwise recreate at the original terms.
// Each failure is recorded and the rest of the batch continues; an
// order that cannot be resolved stays disappeared for the next tick.
func (e *Engine) reconcile(ctx context.Context, now time.Time, report *domain.TickReport) {
	disappeared, err := e.ledger.DisappearedOrders(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: load disappeared: %w", err))
		return
	}
	if len(disappeared) == 0 {
		return
	}
	report.OrdersDisappeared = len(disappeared)

	// one ended-market probe per slug, not per order
	ended := make(map[string]bool)
	unknown := make(map[string]bool)
	for _, o := range disappeared {
		if _, checked := ended[o.MarketSlug]; checked || unknown[o.MarketSlug] {
			continue
		}
		active, err := e.feed.IsMarketActive(ctx, o.MarketSlug)
		if err != nil {
			// inconclusive probe: neither remove nor recreate this tick
			report.Errors = append(report.Errors, fmt.Errorf("engine: market status %s: %w", o.MarketSlug, err))
			unknown[o.MarketSlug] = true
			continue
		}
		ended[o.MarketSlug] = !active
	}

	removed := make(map[string]bool)
	for slug, isEnded := range ended {
		if !isEnded {
			continue
		}
		n, err := e.ledger.DeleteByMarket(ctx, slug)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: remove ended %s: %w", slug, err))
			unknown[slug] = true // never recreate on a market known to be over
			continue
		}
		if err := e.prices.ClearMarket(ctx, slug); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: clear prices %s: %w", slug, err))
		}
		if err := e.queue.Remove(ctx, slug); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: dequeue %s: %w", slug, err))
		}
		report.EndedRemoved += n
		removed[slug] = true
		slog.Info("ended market removed", "slug", slug, "orders", n)
	}

	for _, o := range disappeared {
		if removed[o.MarketSlug] || unknown[o.MarketSlug] {
			continue
		}
		if err := e.resolveOrder(ctx, now, o, report); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: resolve %s: %w", o.OrderID, err))
		}
	}
}

// resolveOrder decides filled vs recreate for a single disappeared
// order. An on-chain balance above the dust threshold means the buy
// executed before the CLOB dropped it.
func (e *Engine) resolveOrder(ctx context.Context, now time.Time, o domain.TrackedOrder, report *domain.TickReport) error {
	bal, err := e.trader.TokenBalance(ctx, o.TokenID)
	if err != nil {
		return fmt.Errorf("token balance: %w", err)
	}
	if bal > dustShares {
		if err := e.ledger.MarkFilled(ctx, o.OrderID); err != nil {
			return fmt.Errorf("mark filled: %w", err)
		}
		report.OrdersFilled++
		slog.Info("disappeared order was filled", "order", o.OrderID, "slug", o.MarketSlug, "balance", bal)
		return nil
	}

	placed, err := e.trader.PlaceOrder(ctx, domain.PlaceOrderRequest{
		TokenID: o.TokenID,
		Side:    o.Side,
		Price:   o.Price,
		Size:    o.Size,
	})
	if err != nil {
		return fmt.Errorf("recreate: %w", err)
	}

	replacement := o
	replacement.OrderID = placed.OrderID
	replacement.CreatedAt = now
	replacement.LastSeenAt = now
	replacement.DisappearedCount = 0
	replacement.Status = domain.StatusActive
	replacement.RecreatedAs = ""
	if err := e.ledger.Track(ctx, replacement); err != nil {
		return fmt.Errorf("track replacement: %w", err)
	}
	if err := e.ledger.MarkRecreated(ctx, o.OrderID, placed.OrderID); err != nil {
		return fmt.Errorf("mark recreated: %w", err)
	}
	report.OrdersRecreated = append(report.OrdersRecreated, domain.RecreatedPair{
		OldOrderID: o.OrderID,
		NewOrderID: placed.OrderID,
		MarketSlug: o.MarketSlug,
		Side:       o.Side,
	})
	slog.Info("order recreated", "old", o.OrderID, "new", placed.OrderID, "slug", o.MarketSlug)
	return nil
}
