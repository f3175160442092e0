package domain

// MarketCategory tags how a market is scored: crypto markets get an
// independent signal from the price feed, general markets only get
// model-uncertainty noise around the quoted price.
type MarketCategory string

const (
	CategoryCrypto  MarketCategory = "crypto"
	CategoryGeneral MarketCategory = "general"
)

// Market is a normalized two-outcome prediction market.
type Market struct {
	ID        string
	Question  string
	Slug      string
	Category  MarketCategory
	YesPrice  float64
	NoPrice   float64
	Volume    float64
	Liquidity float64
}

// PricedInBand reports whether both quoted prices lie strictly inside
// (lo, hi). Markets quoted at or beyond the extremity bounds carry no
// tradeable information and are excluded from scoring.
func (m Market) PricedInBand(lo, hi float64) bool {
	return m.YesPrice > lo && m.YesPrice < hi && m.NoPrice > lo && m.NoPrice < hi
}

// Momentum is the directional read of the crypto price feed.
type Momentum string

const (
	MomentumBullish Momentum = "bullish"
	MomentumBearish Momentum = "bearish"
	MomentumNeutral Momentum = "neutral"
)

// PriceSignal is one scan's snapshot of a crypto symbol: last price,
// short-window change and an RSI-style oscillator. Recomputed every scan,
// never persisted.
type PriceSignal struct {
	Symbol          string
	Price           float64
	RecentChangePct float64
	RSI             float64
	Momentum        Momentum
}

// Oversold reports whether the RSI reads oversold (a contrarian up-nudge).
func (s PriceSignal) Oversold() bool { return s.RSI < 30 }

// Overbought reports whether the RSI reads overbought.
func (s PriceSignal) Overbought() bool { return s.RSI > 70 }

// TruncateQuestion shortens a market question for log lines and tables,
// falling back to the market ID when the question is empty.
func TruncateQuestion(question, marketID string, maxLen int) string {
	q := question
	if q == "" {
		if len(marketID) > 20 {
			q = marketID[:20] + "..."
		} else {
			q = marketID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
