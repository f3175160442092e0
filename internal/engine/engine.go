package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/edgesim/internal/domain"
	"github.com/alejandrodnm/edgesim/internal/ports"
	"golang.org/x/sync/errgroup"
)

// Config holds the scan-loop settings.
type Config struct {
	PollInterval   time.Duration
	RunDuration    time.Duration
	ReportInterval time.Duration
	FeedTimeout    time.Duration
	CapitalFloor   float64
}

// Engine drives the scan loop: fetch → estimate → select → admit → size →
// settle → persist → sleep, until the run deadline or the capital floor.
// A single loop owns the ledger and admission window, so no cross-scan
// locking is needed.
type Engine struct {
	cfg       Config
	markets   ports.MarketProvider
	prices    ports.PriceProvider
	store     ports.Storage
	notifier  ports.Notifier
	oracle    ports.SettlementOracle
	estimator *Estimator
	selector  *Selector
	admission *Admission
	sizer     *Sizer
	ledger    *Ledger

	startTime  time.Time
	lastReport time.Time
	scans      int
}

// New wires an Engine from its collaborators.
func New(
	cfg Config,
	markets ports.MarketProvider,
	prices ports.PriceProvider,
	store ports.Storage,
	notifier ports.Notifier,
	oracle ports.SettlementOracle,
	estimator *Estimator,
	selector *Selector,
	admission *Admission,
	sizer *Sizer,
	ledger *Ledger,
) *Engine {
	return &Engine{
		cfg:       cfg,
		markets:   markets,
		prices:    prices,
		store:     store,
		notifier:  notifier,
		oracle:    oracle,
		estimator: estimator,
		selector:  selector,
		admission: admission,
		sizer:     sizer,
		ledger:    ledger,
	}
}

// Run executes the scan loop until the context is cancelled, the run
// duration elapses or capital breaches the floor. A final snapshot and
// report are always flushed before returning.
func (e *Engine) Run(ctx context.Context) error {
	e.startTime = time.Now().UTC()
	e.lastReport = e.startTime
	deadline := e.startTime.Add(e.cfg.RunDuration)

	slog.Info("engine starting",
		"capital", e.ledger.Capital(),
		"interval", e.cfg.PollInterval,
		"duration", e.cfg.RunDuration,
	)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped (signal)")
			return e.finish(context.WithoutCancel(ctx))
		case <-ticker.C:
			now := time.Now().UTC()
			if now.After(deadline) {
				slog.Info("run duration elapsed")
				return e.finish(ctx)
			}
			if e.ledger.Capital() <= e.cfg.CapitalFloor {
				slog.Warn("capital floor breached",
					"capital", e.ledger.Capital(), "floor", e.cfg.CapitalFloor)
				return e.finish(ctx)
			}
			e.scanOnce(ctx)
		}
	}
}

// ScanOnce runs a single scan cycle. Exposed for the -once mode.
func (e *Engine) ScanOnce(ctx context.Context) { e.scanOnce(ctx) }

// scanOnce runs one full cycle. Feed or estimation failures skip the scan;
// they never terminate the run.
func (e *Engine) scanOnce(ctx context.Context) {
	e.scans++
	start := time.Now()

	markets, signals, err := e.fetch(ctx)
	if err != nil {
		slog.Warn("scan skipped", "scan", e.scans, "err", err)
		e.persistAndReport(ctx)
		return
	}

	edges := make([]domain.Edge, 0, len(markets))
	for _, m := range markets {
		if edge, ok := e.estimator.Estimate(m, signals); ok {
			edges = append(edges, edge)
		}
	}

	now := time.Now().UTC()
	selected := e.selector.Select(edges, func(id string) bool {
		return e.ledger.HasTraded(id, now)
	})

	executed := 0
	for _, edge := range selected {
		if done := e.execute(ctx, edge); done {
			executed++
		}
	}

	slog.Debug("scan complete",
		"scan", e.scans,
		"markets", len(markets),
		"signals", len(signals),
		"edges", len(edges),
		"executed", executed,
		"capital", fmt.Sprintf("%.2f", e.ledger.Capital()),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	e.persistAndReport(ctx)
}

// fetch retrieves both feeds concurrently under a bounded timeout. The
// feeds are independent; a price-feed failure degrades to "no signals",
// a market-feed failure skips the scan.
func (e *Engine) fetch(ctx context.Context) ([]domain.Market, map[string]domain.PriceSignal, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FeedTimeout)
	defer cancel()

	var (
		markets []domain.Market
		signals map[string]domain.PriceSignal
	)

	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		markets, err = e.markets.FetchOpenMarkets(gctx)
		if err != nil {
			return fmt.Errorf("markets feed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		signals, err = e.prices.FetchSignals(gctx)
		if err != nil {
			slog.Warn("price feed degraded", "err", err)
			signals = nil // no signal this scan
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return markets, signals, nil
}

// execute runs one opportunity through admission, sizing, settlement and
// the ledger. Returns true when a trade was applied.
func (e *Engine) execute(ctx context.Context, edge domain.Edge) bool {
	now := time.Now().UTC()

	ok, reason := e.admission.Admit(now)
	if !ok {
		slog.Debug("trade rejected", "market", edge.Market.ID, "reason", reason)
		return false
	}

	size, err := e.sizer.Size(edge.Magnitude, e.ledger.Capital())
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			slog.Debug("sizing rejected", "market", edge.Market.ID, "err", err)
			return false
		}
		slog.Warn("sizing failed", "market", edge.Market.ID, "err", err)
		return false
	}

	trade := e.ledger.ApplyTrade(e.oracle.Settle(edge, size))

	if e.store != nil {
		if err := e.store.SaveTrade(ctx, trade); err != nil {
			slog.Warn("storage error saving trade", "err", err)
		}
	}
	if err := e.notifier.NotifyTrade(ctx, trade); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	return true
}

// persistAndReport overwrites the state snapshot every scan and emits a
// report row when the reporting interval has elapsed, regardless of
// whether any trades occurred.
func (e *Engine) persistAndReport(ctx context.Context) {
	now := time.Now().UTC()

	if e.store != nil {
		if err := e.store.SaveSnapshot(ctx, e.ledger.Snapshot(now)); err != nil {
			slog.Warn("storage error saving snapshot", "err", err)
		}
	}

	if now.Sub(e.lastReport) < e.cfg.ReportInterval {
		return
	}
	e.lastReport = now

	report := e.ledger.Report(now, e.startTime, e.scans)
	if e.store != nil {
		if err := e.store.AppendReport(ctx, report); err != nil {
			slog.Warn("storage error appending report", "err", err)
		}
	}
	if err := e.notifier.NotifyReport(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

// finish flushes the final snapshot and report. Every terminal path passes
// through here, so no run ends with unpersisted state.
func (e *Engine) finish(ctx context.Context) error {
	now := time.Now().UTC()
	snap := e.ledger.Snapshot(now)
	report := e.ledger.Report(now, e.startTime, e.scans)

	if e.store != nil {
		if err := e.store.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("storage error on final snapshot", "err", err)
		}
		if err := e.store.AppendReport(ctx, report); err != nil {
			slog.Warn("storage error on final report", "err", err)
		}
	}
	if err := e.notifier.NotifyFinal(ctx, snap, report); err != nil {
		slog.Warn("notifier error on final summary", "err", err)
	}

	slog.Info("engine finished",
		"scans", e.scans,
		"trades", snap.TradeCount,
		"capital", fmt.Sprintf("%.2f", snap.Capital),
		"roi_pct", fmt.Sprintf("%.2f", snap.ROIPct),
	)
	return nil
}
