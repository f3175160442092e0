package ports

import (
	"github.com/alejandrodnm/edgesim/internal/domain"
)

// SettlementOracle decides the outcome of a sized position. The default
// implementation is a stochastic simulator; a real-resolution oracle can
// replace it without touching the rest of the engine.
type SettlementOracle interface {
	// Settle fills the position at the quoted price (plus slippage) and
	// resolves it, returning the complete Trade record. CapitalAfter is
	// left zero; the ledger stamps it when the trade is applied.
	Settle(edge domain.Edge, size float64) domain.Trade
}
