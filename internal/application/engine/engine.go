package engine

// engine.go — tick-based control loop for the LoL trading bot.
//
// Each tick runs the full pipeline against a fresh venue snapshot:
// order sync → reconciliation → discovery → admission → exits.
// The engine never trusts its own memory of the CLOB: the open-order
// snapshot and on-chain balances are re-fetched every tick. Sync and
// reconciliation go first so the snapshot is only ever compared against
// orders that predate it.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/lolbot/internal/domain"
	"github.com/alejandrodnm/lolbot/internal/ports"
)

const (
	// admission window after entry_time
	defaultGrace = 2 * time.Minute
	// pending markets are dropped this long after match start
	defaultExpiryHorizon = time.Hour
	// entries open this far before the match starts
	defaultEntryLead = 60 * time.Minute
	// pre-match price snapshots are taken inside this window
	defaultCacheWindow = 180 * time.Minute
	// consecutive absent snapshots before an order is disappeared
	defaultDisappearThreshold = 1
	// on-chain share balance above this means the order filled
	dustShares = 0.1
	// pre-existing balance above this blocks a new entry
	entryBalanceEpsilon = 0.01
	// terminal ledger rows older than this get pruned
	pruneRetention = 7 * 24 * time.Hour
)

// Config holds configuration for the trading engine.
type Config struct {
	EntryUSD           float64
	Grace              time.Duration
	ExpiryHorizon      time.Duration
	EntryLead          time.Duration
	CacheWindow        time.Duration
	DisappearThreshold int
	ExcludedMarkets    []string
}

// Engine runs the trading pipeline once per tick.
type Engine struct {
	feed   ports.MarketFeed
	trader ports.Trader
	ledger ports.OrderLedger
	queue  ports.AdmissionQueue
	prices ports.PriceCache
	cfg    Config

	excluded map[string]bool
}

// New creates a trading engine. Zero config values get defaults.
func New(
	feed ports.MarketFeed,
	trader ports.Trader,
	ledger ports.OrderLedger,
	queue ports.AdmissionQueue,
	prices ports.PriceCache,
	cfg Config,
) *Engine {
	if cfg.Grace <= 0 {
		cfg.Grace = defaultGrace
	}
	if cfg.ExpiryHorizon <= 0 {
		cfg.ExpiryHorizon = defaultExpiryHorizon
	}
	if cfg.EntryLead <= 0 {
		cfg.EntryLead = defaultEntryLead
	}
	if cfg.CacheWindow <= 0 {
		cfg.CacheWindow = defaultCacheWindow
	}
	if cfg.DisappearThreshold <= 0 {
		cfg.DisappearThreshold = defaultDisappearThreshold
	}

	excluded := make(map[string]bool, len(cfg.ExcludedMarkets))
	for _, slug := range cfg.ExcludedMarkets {
		excluded[slug] = true
	}

	return &Engine{
		feed:     feed,
		trader:   trader,
		ledger:   ledger,
		queue:    queue,
		prices:   prices,
		cfg:      cfg,
		excluded: excluded,
	}
}

// RunTick executes one full cycle. Stage errors are collected in the
// report instead of aborting the tick: a Gamma outage must not stop
// order reconciliation, and vice versa.
func (e *Engine) RunTick(ctx context.Context, now time.Time) domain.TickReport {
	report := domain.TickReport{StartedAt: now}

	// 1. Queue hygiene: drop expired and corrupt entries
	if n, err := e.queue.ExpireStale(ctx, now, e.cfg.ExpiryHorizon); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: expire queue: %w", err))
	} else if n > 0 {
		slog.Info("expired stale queue entries", "count", n)
	}

	// 2. Sync: compare the ledger against the venue snapshot. This runs
	// before any placement so orders created later in the tick can never
	// be read as absent from a snapshot taken before they existed.
	if err := e.syncOrders(ctx, now, &report); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: sync orders: %w", err))
	}

	// 3. Reconciliation: resolve every disappeared order
	e.reconcile(ctx, now, &report)

	// 4. Discovery: scan markets, cache pre-match prices, enqueue
	if err := e.discover(ctx, now, &report); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: discover: %w", err))
	}

	// 5. Admission: place entries for markets whose window is open
	if err := e.admit(ctx, now, &report); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: admit: %w", err))
	}

	// 6. Exits: place take-profit sells for unsold positions
	e.placeExits(ctx, now, &report)

	// 7. Ledger hygiene
	if _, err := e.ledger.Prune(ctx, now.Add(-pruneRetention)); err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("engine: prune ledger: %w", err))
	}

	report.Duration = time.Since(now)
	return report
}

// discover scans the feed, snapshots pre-match prices inside the cache
// window and enqueues unseen markets with their entry window.
func (e *Engine) discover(ctx context.Context, now time.Time, report *domain.TickReport) error {
	markets, err := e.feed.Scan(ctx, now)
	if err != nil {
		return err
	}
	report.MarketsDiscovered = len(markets)

	for _, m := range markets {
		if e.excluded[m.Slug] {
			continue
		}

		// snapshot prices once inside [start-window, start]
		untilStart := m.StartTime.Sub(now)
		if untilStart >= 0 && untilStart <= e.cfg.CacheWindow {
			e.cachePrices(ctx, m, now, report)
		}

		known, err := e.queue.Contains(ctx, m.Slug)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: queue lookup %s: %w", m.Slug, err))
			continue
		}
		if known {
			continue
		}

		opp := domain.QueuedOpportunity{
			Slug:           m.Slug,
			EntryTime:      m.StartTime.Add(-e.cfg.EntryLead),
			MatchStartTime: m.StartTime,
			DiscoveredAt:   now,
		}
		if err := e.queue.Enqueue(ctx, opp); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: enqueue %s: %w", m.Slug, err))
			continue
		}
		report.MarketsQueued++
		slog.Info("market queued",
			"slug", m.Slug,
			"start", m.StartTime.Format(time.RFC3339),
			"strong", m.Strong().Name,
			"strongPrice", m.Strong().Price.String(),
		)
	}
	return nil
}

// cachePrices stores the write-once pre-match snapshot for both teams.
func (e *Engine) cachePrices(ctx context.Context, m domain.Market, now time.Time, report *domain.TickReport) {
	for _, team := range m.Teams {
		p := domain.CachedPrice{
			MarketSlug: m.Slug,
			TokenID:    team.TokenID,
			Price:      team.Price,
			Label:      team.Name,
			CachedAt:   now,
		}
		if err := e.prices.Put(ctx, p); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("engine: cache price %s/%s: %w", m.Slug, team.TokenID, err))
		}
	}
}
