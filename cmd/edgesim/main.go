package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/edgesim/config"
	"github.com/alejandrodnm/edgesim/internal/adapters/binance"
	"github.com/alejandrodnm/edgesim/internal/adapters/notify"
	"github.com/alejandrodnm/edgesim/internal/adapters/polymarket"
	"github.com/alejandrodnm/edgesim/internal/adapters/storage"
	"github.com/alejandrodnm/edgesim/internal/engine"
	"github.com/alejandrodnm/edgesim/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	dryRun := flag.Bool("dry-run", false, "run one scan cycle without persisting anything")
	report := flag.Bool("report", false, "print the stored run state and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	notifier := notify.NewConsole()

	// In dry-run mode the store stays a nil interface and the engine
	// skips persistence entirely.
	var store ports.Storage
	if !*dryRun {
		s, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer s.Close()
		store = s

		if *report {
			if err := printStoredState(ctx, s, notifier); err != nil {
				slog.Error("failed to read stored state", "err", err)
				os.Exit(1)
			}
			return
		}
	}

	seed := cfg.Engine.RNGSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	slog.Info("edgesim starting",
		"config", *configPath,
		"capital", cfg.Engine.InitialCapital,
		"interval", cfg.PollInterval(),
		"duration", cfg.RunDuration(),
		"price_source", cfg.Feeds.PriceSource,
		"seed", seed,
	)

	markets := polymarket.NewProvider(
		polymarket.NewClient(cfg.Feeds.GammaBase, cfg.FeedTimeout()),
		cfg.Feeds.MarketLimit,
		cfg.Feeds.MaxMarketPages,
	)
	prices := buildPriceProvider(ctx, cfg)

	e := engine.New(
		engine.Config{
			PollInterval:   cfg.PollInterval(),
			RunDuration:    cfg.RunDuration(),
			ReportInterval: cfg.ReportInterval(),
			FeedTimeout:    cfg.FeedTimeout(),
			CapitalFloor:   cfg.Engine.CapitalFloor,
		},
		markets,
		prices,
		store,
		notifier,
		engine.NewSimulator(engine.SimulatorConfig{
			SlippageRate:   cfg.Strategy.SlippageRate,
			WinProbFloor:   cfg.Strategy.WinProbFloor,
			WinProbCeil:    cfg.Strategy.WinProbCeil,
			MaxWinMultiple: cfg.Strategy.MaxWinMultiple,
			LossSeverity:   cfg.Strategy.LossSeverity,
		}, rng),
		engine.NewEstimator(engine.EstimatorConfig{
			MinEdge:          cfg.Strategy.MinEdge,
			ExtremityLow:     cfg.Strategy.ExtremityLow,
			ExtremityHigh:    cfg.Strategy.ExtremityHigh,
			MomentumDivisor:  cfg.Strategy.MomentumDivisor,
			ProbFloor:        cfg.Strategy.ProbFloor,
			ProbCeil:         cfg.Strategy.ProbCeil,
			GeneralNoise:     cfg.Strategy.GeneralNoise,
			GeneralEdgeCap:   cfg.Strategy.GeneralEdgeCap,
			MinGeneralVolume: cfg.Strategy.MinGeneralVolume,
			PrimarySymbol:    primarySymbol(cfg.Feeds.Symbols),
		}, rng),
		engine.NewSelector(cfg.Strategy.CryptoPriority, cfg.Engine.MaxTradesPerScan),
		engine.NewAdmission(cfg.TradeSpacing(), cfg.Engine.MaxTradesPerHour),
		engine.NewSizer(
			cfg.Strategy.KellyMultiplier,
			cfg.Strategy.KellyCap,
			cfg.Strategy.MaxPositionPct,
			cfg.Strategy.MinTradeSize,
			cfg.Engine.CapitalFloor,
		),
		engine.NewLedger(
			cfg.Engine.InitialCapital,
			time.Duration(cfg.Strategy.RetradeCooldownMinutes)*time.Minute,
		),
	)

	if *once || *dryRun {
		e.ScanOnce(ctx)
		return
	}

	if err := e.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("edgesim stopped cleanly")
}

// buildPriceProvider picks the REST klines provider or the websocket ticker
// stream. The stream runs its own reconnecting pump for the life of the run.
func buildPriceProvider(ctx context.Context, cfg *config.Config) ports.PriceProvider {
	if cfg.Feeds.PriceSource == "websocket" {
		stream := binance.NewStreamProvider(cfg.Feeds.BinanceWSBase, cfg.Feeds.Symbols)
		go stream.Run(ctx)
		return stream
	}
	return binance.NewProvider(
		binance.NewClient(cfg.Feeds.BinanceBase, cfg.FeedTimeout()),
		cfg.Feeds.Symbols,
	)
}

func primarySymbol(symbols []string) string {
	if len(symbols) == 0 {
		return "BTCUSDT"
	}
	return symbols[0]
}

// printStoredState dumps the persisted snapshot and report history from a
// previous or still-running session.
func printStoredState(ctx context.Context, store *storage.SQLiteStorage, notifier *notify.Console) error {
	snap, err := store.GetSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	reports, err := store.GetReports(ctx)
	if err != nil {
		return fmt.Errorf("load reports: %w", err)
	}

	if len(reports) == 0 {
		slog.Info("no reports recorded yet")
	}
	for _, r := range reports {
		if err := notifier.NotifyReport(ctx, r); err != nil {
			return err
		}
	}

	slog.Info("stored run state",
		"as_of", snap.Timestamp.Format(time.RFC3339),
		"capital", fmt.Sprintf("%.2f", snap.Capital),
		"trades", snap.TradeCount,
		"roi_pct", fmt.Sprintf("%.2f", snap.ROIPct),
	)
	return nil
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
