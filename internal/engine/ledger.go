package engine

import (
	"time"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

// Ledger is the single owner of capital state. Every mutation is the
// atomic application of exactly one settled trade; nothing else may touch
// capital. The ledger is the only state that survives across scans.
type Ledger struct {
	capital         float64
	initialCapital  float64
	trades          []domain.Trade
	tradedAt        map[string]time.Time
	retradeCooldown time.Duration // 0 = a market is traded at most once per run
}

// NewLedger creates a Ledger with the starting capital.
func NewLedger(initialCapital float64, retradeCooldown time.Duration) *Ledger {
	return &Ledger{
		capital:         initialCapital,
		initialCapital:  initialCapital,
		tradedAt:        make(map[string]time.Time),
		retradeCooldown: retradeCooldown,
	}
}

// Capital returns the current capital.
func (l *Ledger) Capital() float64 { return l.capital }

// TradeCount returns the number of applied trades.
func (l *Ledger) TradeCount() int { return len(l.trades) }

// ApplyTrade applies the trade's P&L, records it in insertion order and
// marks the market traded. Returns the trade with CapitalAfter stamped.
func (l *Ledger) ApplyTrade(t domain.Trade) domain.Trade {
	l.capital += t.PnL
	t.CapitalAfter = l.capital
	l.trades = append(l.trades, t)
	l.tradedAt[t.MarketID] = t.Timestamp
	return t
}

// HasTraded reports whether the market is still inside the dedup window.
// With a zero cooldown a traded market stays excluded for the whole run.
func (l *Ledger) HasTraded(marketID string, now time.Time) bool {
	at, ok := l.tradedAt[marketID]
	if !ok {
		return false
	}
	if l.retradeCooldown == 0 {
		return true
	}
	return now.Sub(at) < l.retradeCooldown
}

// Snapshot summarizes the run at now by scanning the trade history.
func (l *Ledger) Snapshot(now time.Time) domain.Snapshot {
	wins := 0
	for _, t := range l.trades {
		if t.IsWin {
			wins++
		}
	}

	pnl := l.capital - l.initialCapital
	snap := domain.Snapshot{
		Timestamp:      now,
		Capital:        l.capital,
		InitialCapital: l.initialCapital,
		PnL:            pnl,
		ROIPct:         pnl / l.initialCapital * 100,
		TradeCount:     len(l.trades),
		Wins:           wins,
		Losses:         len(l.trades) - wins,
		MaxDrawdownPct: l.maxDrawdownPct(),
	}
	if len(l.trades) > 0 {
		snap.WinRate = float64(wins) / float64(len(l.trades)) * 100
	}

	recent := len(l.trades)
	if recent > 5 {
		recent = 5
	}
	snap.RecentTrades = append(snap.RecentTrades, l.trades[len(l.trades)-recent:]...)
	return snap
}

// Report builds the periodic performance row for the given run start and
// scan count.
func (l *Ledger) Report(now, startTime time.Time, scans int) domain.Report {
	snap := l.Snapshot(now)

	var cryptoTrades int
	var cryptoPnL float64
	for _, t := range l.trades {
		if t.Category == domain.CategoryCrypto {
			cryptoTrades++
			cryptoPnL += t.PnL
		}
	}

	r := domain.Report{
		Timestamp:      now,
		RuntimeHours:   now.Sub(startTime).Hours(),
		Scans:          scans,
		Capital:        snap.Capital,
		PnL:            snap.PnL,
		ROIPct:         snap.ROIPct,
		TradeCount:     snap.TradeCount,
		Wins:           snap.Wins,
		Losses:         snap.Losses,
		WinRate:        snap.WinRate,
		MaxDrawdownPct: snap.MaxDrawdownPct,
		CryptoTrades:   cryptoTrades,
		CryptoPnL:      cryptoPnL,
	}
	if snap.TradeCount > 0 {
		r.AvgTradePnL = snap.PnL / float64(snap.TradeCount)
	}
	return r
}

// maxDrawdownPct is the largest peak-to-trough capital drop over the trade
// history, as a percentage of the running peak.
func (l *Ledger) maxDrawdownPct() float64 {
	peak := l.initialCapital
	maxDD := 0.0
	for _, t := range l.trades {
		if t.CapitalAfter > peak {
			peak = t.CapitalAfter
		}
		dd := (peak - t.CapitalAfter) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
