package domain

import "time"

// Trade is one settled simulated position. Created atomically by the
// settlement oracle and immutable once the ledger applies it.
type Trade struct {
	ID           string
	Timestamp    time.Time
	MarketID     string
	Question     string
	Category     MarketCategory
	Side         Side
	EntryPrice   float64 // quoted price after slippage
	Size         float64 // capital units committed
	EdgeAtEntry  float64
	WinProb      float64
	IsWin        bool
	PnL          float64
	CapitalAfter float64
}

// Snapshot is a point-in-time summary of the run, recomputed from the
// trade history. Persisted every scan and flushed on shutdown.
type Snapshot struct {
	Timestamp      time.Time
	Capital        float64
	InitialCapital float64
	PnL            float64
	ROIPct         float64
	TradeCount     int
	Wins           int
	Losses         int
	WinRate        float64 // percent
	MaxDrawdownPct float64
	RecentTrades   []Trade
}

// Report is one row of the periodic performance log, emitted on a fixed
// wall-clock cadence independent of trade activity.
type Report struct {
	Timestamp      time.Time
	RuntimeHours   float64
	Scans          int
	Capital        float64
	PnL            float64
	ROIPct         float64
	TradeCount     int
	Wins           int
	Losses         int
	WinRate        float64
	MaxDrawdownPct float64
	CryptoTrades   int
	CryptoPnL      float64
	AvgTradePnL    float64
}
