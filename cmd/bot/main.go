package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/lolbot/config"
	"github.com/alejandrodnm/lolbot/internal/adapters/notify"
	"github.com/alejandrodnm/lolbot/internal/adapters/onchain"
	"github.com/alejandrodnm/lolbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/lolbot/internal/adapters/storage"
	"github.com/alejandrodnm/lolbot/internal/application/engine"
	"github.com/alejandrodnm/lolbot/internal/ports"
)

const stopFile = "STOP_BOT"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one tick and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug and print full tick tables")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	yes := flag.Bool("yes", false, "skip the live trading confirmation delay")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("lolbot starting",
		"config", *configPath,
		"interval", cfg.TickInterval(),
		"entry_usd", cfg.Trading.EntryUSD,
		"once", *once,
	)

	privateKey, err := cfg.PrivateKey()
	if err != nil {
		slog.Error("missing wallet key", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*yes && !*once {
		fmt.Printf("\n⚠️  LIVE TRADING — REAL MONEY WILL BE SPENT\n")
		fmt.Printf("   Entry size: $%.2f per order | Interval: %s\n", cfg.Trading.EntryUSD, cfg.TickInterval())
		fmt.Printf("   Press Ctrl+C within 5 seconds to abort...\n\n")
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			slog.Info("startup aborted by user")
			return
		}
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	authClient, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.DataBase, privateKey)
	if err != nil {
		slog.Error("failed to create auth client", "err", err)
		os.Exit(1)
	}
	if err := authClient.EnsureCreds(ctx); err != nil {
		slog.Error("failed to derive API credentials — check PRIVATE_KEY", "err", err)
		os.Exit(1)
	}
	slog.Info("authenticated with Polymarket CLOB", "address", authClient.Address())

	trader, err := polymarket.NewTradingClient(authClient, cfg.API.RPCURL)
	if err != nil {
		slog.Error("failed to create trading client", "err", err)
		os.Exit(1)
	}

	approvals, err := onchain.NewApprovalClient(cfg.API.RPCURL, privateKey)
	if err != nil {
		slog.Error("failed to create approval client", "err", err)
		os.Exit(1)
	}
	slog.Info("checking on-chain approvals...")
	if err := approvals.EnsureApprovals(ctx); err != nil {
		slog.Error("failed to ensure on-chain approvals", "err", err)
		os.Exit(1)
	}
	slog.Info("all approvals verified")

	balance, err := trader.Balance(ctx)
	if err != nil {
		slog.Error("failed to get CLOB balance", "err", err)
		os.Exit(1)
	}
	slog.Info("CLOB balance", "usdc", fmt.Sprintf("$%.2f", balance))
	if balance < cfg.Trading.EntryUSD*2 {
		slog.Warn("balance below one full entry, new markets will not be entered",
			"balance", fmt.Sprintf("$%.2f", balance),
			"required", fmt.Sprintf("$%.2f", cfg.Trading.EntryUSD*2))
	}

	feed := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.DataBase)

	eng := engine.New(feed, trader, store, store, store, engine.Config{
		EntryUSD:           cfg.Trading.EntryUSD,
		Grace:              cfg.Grace(),
		ExpiryHorizon:      cfg.ExpiryHorizon(),
		EntryLead:          cfg.EntryLead(),
		CacheWindow:        cfg.CacheWindow(),
		DisappearThreshold: cfg.Trading.DisappearThreshold,
		ExcludedMarkets:    cfg.Trading.ExcludedMarkets,
	})

	notifier := notify.NewConsole(*verbose)

	runTick(ctx, eng, trader, notifier, cfg.TickInterval(), 1)
	if *once {
		slog.Info("single tick complete")
		return
	}

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	slog.Info("trading loop started — press Ctrl+C or create STOP_BOT file to exit")

	tick := 1
	for {
		select {
		case <-ctx.Done():
			slog.Info("lolbot stopped (signal)", "total_ticks", tick)
			return
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("STOP_BOT file detected — shutting down", "total_ticks", tick)
				os.Remove(stopFile)
				return
			}
			tick++
			runTick(ctx, eng, trader, notifier, cfg.TickInterval(), tick)
		}
	}
}

// runTick bounds the tick with a deadline and isolates panics: one bad
// cycle must not take the loop down.
func runTick(ctx context.Context, eng *engine.Engine, trader ports.Trader, notifier ports.Notifier, deadline time.Duration, tick int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick panicked", "tick", tick, "panic", r)
		}
	}()

	tickCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	report := eng.RunTick(tickCtx, time.Now())

	if balance, err := trader.Balance(tickCtx); err != nil {
		slog.Warn("balance check failed", "err", err)
	} else {
		slog.Info("CLOB balance", "usdc", fmt.Sprintf("$%.2f", balance))
	}

	slog.Info("tick complete",
		"tick", tick,
		"duration", report.Duration.Truncate(time.Millisecond),
		"discovered", report.MarketsDiscovered,
		"queued", report.MarketsQueued,
		"entries", report.EntriesPlaced,
		"checked", report.OrdersChecked,
		"disappeared", report.OrdersDisappeared,
		"filled", report.OrdersFilled,
		"recreated", len(report.OrdersRecreated),
		"sells", len(report.SellsPlaced),
		"errors", len(report.Errors),
	)

	if err := notifier.Notify(tickCtx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
