package engine

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

// EstimatorConfig holds the edge-estimation thresholds.
type EstimatorConfig struct {
	MinEdge          float64
	ExtremityLow     float64
	ExtremityHigh    float64
	MomentumDivisor  float64
	ProbFloor        float64
	ProbCeil         float64
	GeneralNoise     float64
	GeneralEdgeCap   float64
	MinGeneralVolume float64
	PrimarySymbol    string
}

// Estimator turns a market plus the current price signals into at most one
// candidate Edge. The probability model is an explicit heuristic: momentum
// and RSI for crypto markets, bounded zero-mean noise for everything else.
type Estimator struct {
	cfg EstimatorConfig
	rng *rand.Rand
}

// NewEstimator creates an Estimator. The rng drives the general-market
// noise and must be seeded by the caller for reproducible runs.
func NewEstimator(cfg EstimatorConfig, rng *rand.Rand) *Estimator {
	return &Estimator{cfg: cfg, rng: rng}
}

// Directional keywords in the question decide which way a price move shifts
// the fair probability.
var (
	upKeywords   = []string{"up", "above", "rise", "higher", "reach", "hit"}
	downKeywords = []string{"down", "below", "fall", "lower", "drop"}
)

// Estimate scores one market. Returns false when the market is excluded
// (extreme quote, no signal, thin volume) or the best edge is below the
// minimum threshold.
func (e *Estimator) Estimate(m domain.Market, signals map[string]domain.PriceSignal) (domain.Edge, bool) {
	if !m.PricedInBand(e.cfg.ExtremityLow, e.cfg.ExtremityHigh) {
		return domain.Edge{}, false
	}

	var fairProb float64
	switch m.Category {
	case domain.CategoryCrypto:
		sig, ok := e.signalFor(m, signals)
		if !ok {
			return domain.Edge{}, false // no signal this scan
		}
		fairProb = e.cryptoFairProb(m, sig)
	default:
		if m.Volume < e.cfg.MinGeneralVolume {
			return domain.Edge{}, false
		}
		fairProb = e.generalFairProb(m)
	}

	edgeYes := fairProb - m.YesPrice
	edgeNo := (1 - fairProb) - m.NoPrice

	edge := domain.Edge{Market: m}
	if edgeYes >= edgeNo {
		edge.Side = domain.SideYes
		edge.FairProb = fairProb
		edge.Price = m.YesPrice
		edge.Magnitude = edgeYes
	} else {
		edge.Side = domain.SideNo
		edge.FairProb = 1 - fairProb
		edge.Price = m.NoPrice
		edge.Magnitude = edgeNo
	}

	if edge.Magnitude < e.cfg.MinEdge {
		return domain.Edge{}, false
	}
	if m.Category == domain.CategoryGeneral && edge.Magnitude > e.cfg.GeneralEdgeCap {
		// Noise-derived edges beyond the cap are feed inconsistency, not
		// opportunity.
		return domain.Edge{}, false
	}

	edge.Confidence = confidence(edge.Magnitude, m.Volume)
	return edge, true
}

// cryptoFairProb starts from a coin flip and shifts it by the recent price
// move in the direction the question implies, then applies the contrarian
// RSI correction and clamps to the configured band.
func (e *Estimator) cryptoFairProb(m domain.Market, sig domain.PriceSignal) float64 {
	question := strings.ToLower(m.Question)

	shift := sig.RecentChangePct / e.cfg.MomentumDivisor
	switch {
	case containsAny(question, upKeywords):
		// keep sign: rising price favors "up" resolving YES
	case containsAny(question, downKeywords):
		shift = -shift
	default:
		shift /= 2 // threshold markets get half weight
	}
	fairProb := 0.5 + shift

	if sig.Oversold() {
		fairProb = min(fairProb+0.1, 0.75)
	} else if sig.Overbought() {
		fairProb = max(fairProb-0.1, 0.25)
	}

	return clamp(fairProb, e.cfg.ProbFloor, e.cfg.ProbCeil)
}

// generalFairProb treats the quoted price as the prior plus symmetric
// zero-mean noise for model uncertainty. The noise can never manufacture a
// persistent edge.
func (e *Estimator) generalFairProb(m domain.Market) float64 {
	noise := (e.rng.Float64()*2 - 1) * e.cfg.GeneralNoise
	return clamp(m.YesPrice+noise, e.cfg.ProbFloor, e.cfg.ProbCeil)
}

// signalFor picks the price signal for the symbol the question mentions,
// falling back to the primary symbol.
func (e *Estimator) signalFor(m domain.Market, signals map[string]domain.PriceSignal) (domain.PriceSignal, bool) {
	if len(signals) == 0 {
		return domain.PriceSignal{}, false
	}
	text := strings.ToLower(m.Question + " " + m.Slug)
	symbols := make([]string, 0, len(signals))
	for symbol := range signals {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols) // deterministic pick when several assets match
	for _, symbol := range symbols {
		asset := strings.ToLower(strings.TrimSuffix(symbol, "USDT"))
		if asset == "" {
			continue
		}
		for _, name := range assetAliases(asset) {
			if strings.Contains(text, name) {
				return signals[symbol], true
			}
		}
	}
	if sig, ok := signals[e.cfg.PrimarySymbol]; ok {
		return sig, true
	}
	return domain.PriceSignal{}, false
}

// assetAliases returns the names a question may use for a ticker asset.
func assetAliases(asset string) []string {
	switch asset {
	case "btc":
		return []string{"btc", "bitcoin"}
	case "eth":
		return []string{"eth", "ethereum"}
	case "sol":
		return []string{"sol", "solana"}
	default:
		return []string{asset}
	}
}

// confidence grows with edge size and traded volume, capped below 0.9 so
// no estimate is ever treated as near-certain.
func confidence(edge, volume float64) float64 {
	return min(0.9, 0.5+edge+volume/1e6)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
