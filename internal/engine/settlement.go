package engine

import (
	"math/rand"
	"time"

	"github.com/alejandrodnm/edgesim/internal/domain"
	"github.com/google/uuid"
)

// SimulatorConfig holds the settlement-simulation parameters.
type SimulatorConfig struct {
	SlippageRate   float64
	WinProbFloor   float64
	WinProbCeil    float64
	MaxWinMultiple float64
	LossSeverity   float64
	EdgeWinWeight  float64 // how much of the edge feeds the win probability
}

// Simulator is the stochastic stand-in for real market resolution. It
// implements ports.SettlementOracle; swapping in a real-resolution oracle
// leaves the rest of the engine untouched.
type Simulator struct {
	cfg SimulatorConfig
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator creates a Simulator. The rng must be seeded by the caller
// for reproducible runs.
func NewSimulator(cfg SimulatorConfig, rng *rand.Rand) *Simulator {
	if cfg.EdgeWinWeight == 0 {
		cfg.EdgeWinWeight = 0.6
	}
	return &Simulator{cfg: cfg, rng: rng, now: time.Now}
}

// Settle fills the position at the quoted price plus slippage, draws the
// outcome with an edge-weighted probability and returns the finished Trade.
// CapitalAfter is stamped later by the ledger.
func (s *Simulator) Settle(edge domain.Edge, size float64) domain.Trade {
	entryPrice := edge.Price * (1 + s.cfg.SlippageRate)

	// The win probability leans on the quoted price plus a fraction of the
	// edge, clamped so no single trade is modeled as a certainty.
	winProb := clamp(edge.Price+edge.Magnitude*s.cfg.EdgeWinWeight,
		s.cfg.WinProbFloor, s.cfg.WinProbCeil)

	isWin := s.rng.Float64() < winProb

	var pnl float64
	if isWin {
		pnl = size * (1/entryPrice - 1)
		pnl = min(pnl, size*s.cfg.MaxWinMultiple) // near-zero entries cannot pay out unbounded
	} else {
		pnl = -size * s.cfg.LossSeverity
	}

	return domain.Trade{
		ID:          uuid.NewString(),
		Timestamp:   s.now().UTC(),
		MarketID:    edge.Market.ID,
		Question:    edge.Market.Question,
		Category:    edge.Market.Category,
		Side:        edge.Side,
		EntryPrice:  entryPrice,
		Size:        size,
		EdgeAtEntry: edge.Magnitude,
		WinProb:     winProb,
		IsWin:       isWin,
		PnL:         pnl,
	}
}
