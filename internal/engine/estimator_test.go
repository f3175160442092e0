package engine

import (
	"math/rand"
	"testing"

	"github.com/alejandrodnm/edgesim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		MinEdge:          0.05,
		ExtremityLow:     0.05,
		ExtremityHigh:    0.95,
		MomentumDivisor:  50,
		ProbFloor:        0.20,
		ProbCeil:         0.80,
		GeneralNoise:     0.06,
		GeneralEdgeCap:   0.15,
		MinGeneralVolume: 10000,
		PrimarySymbol:    "BTCUSDT",
	}
}

func cryptoMarket(yes, no float64) domain.Market {
	return domain.Market{
		ID:       "m1",
		Question: "Will Bitcoin go up today?",
		Category: domain.CategoryCrypto,
		YesPrice: yes,
		NoPrice:  no,
		Volume:   50000,
	}
}

func bullishSignal() map[string]domain.PriceSignal {
	return map[string]domain.PriceSignal{
		"BTCUSDT": {
			Symbol:          "BTCUSDT",
			Price:           95000,
			RecentChangePct: 0.5,
			RSI:             25,
			Momentum:        domain.MomentumBullish,
		},
	}
}

func TestEstimate_OversoldBullishCrypto(t *testing.T) {
	// yes=0.40, bullish momentum, rsi=25, change=+0.5.
	// fairProb = 0.5 + 0.5/50 + 0.1 (oversold) = 0.61 → edgeYes = 0.21.
	e := NewEstimator(testEstimatorConfig(), rand.New(rand.NewSource(1)))

	edge, ok := e.Estimate(cryptoMarket(0.40, 0.60), bullishSignal())
	require.True(t, ok)

	assert.Equal(t, domain.SideYes, edge.Side)
	assert.InDelta(t, 0.61, edge.FairProb, 0.001)
	assert.InDelta(t, 0.21, edge.Magnitude, 0.001)
	assert.GreaterOrEqual(t, edge.Magnitude, 0.05)
	assert.Greater(t, edge.Confidence, 0.5)
}

func TestEstimate_OverboughtShiftsDown(t *testing.T) {
	e := NewEstimator(testEstimatorConfig(), rand.New(rand.NewSource(1)))
	signals := map[string]domain.PriceSignal{
		"BTCUSDT": {Symbol: "BTCUSDT", RecentChangePct: -1.0, RSI: 80},
	}

	m := cryptoMarket(0.60, 0.40)
	m.Question = "Will Bitcoin fall below $80k?"

	// down keywords flip the sign: shift = -(-1.0/50) = +0.02, then
	// overbought pulls it back: 0.52 - 0.1 = 0.42 → NO side fair = 0.58.
	edge, ok := e.Estimate(m, signals)
	require.True(t, ok)
	assert.Equal(t, domain.SideNo, edge.Side)
	assert.InDelta(t, 0.58, edge.FairProb, 0.001)
	assert.InDelta(t, 0.18, edge.Magnitude, 0.001)
}

func TestEstimate_ExtremePriceAlwaysExcluded(t *testing.T) {
	e := NewEstimator(testEstimatorConfig(), rand.New(rand.NewSource(1)))

	// Even a maximal bullish signal cannot rescue yes=0.97.
	_, ok := e.Estimate(cryptoMarket(0.97, 0.03), bullishSignal())
	assert.False(t, ok)

	_, ok = e.Estimate(cryptoMarket(0.03, 0.97), bullishSignal())
	assert.False(t, ok)
}

func TestEstimate_FairProbClampedToBand(t *testing.T) {
	cfg := testEstimatorConfig()
	e := NewEstimator(cfg, rand.New(rand.NewSource(1)))
	signals := map[string]domain.PriceSignal{
		"BTCUSDT": {Symbol: "BTCUSDT", RecentChangePct: 50, RSI: 25},
	}

	edge, ok := e.Estimate(cryptoMarket(0.40, 0.60), signals)
	require.True(t, ok)
	assert.LessOrEqual(t, edge.FairProb, cfg.ProbCeil)
}

func TestEstimate_CryptoWithoutSignalSkipped(t *testing.T) {
	e := NewEstimator(testEstimatorConfig(), rand.New(rand.NewSource(1)))
	_, ok := e.Estimate(cryptoMarket(0.40, 0.60), nil)
	assert.False(t, ok)
}

func TestEstimate_BelowMinEdgeRejected(t *testing.T) {
	e := NewEstimator(testEstimatorConfig(), rand.New(rand.NewSource(1)))
	signals := map[string]domain.PriceSignal{
		"BTCUSDT": {Symbol: "BTCUSDT", RecentChangePct: 0, RSI: 50},
	}

	// fairProb stays at 0.5 → edge on either side is 0.02 < minEdge.
	_, ok := e.Estimate(cryptoMarket(0.48, 0.52), signals)
	assert.False(t, ok)
}

func TestEstimate_GeneralNoiseIsBounded(t *testing.T) {
	cfg := testEstimatorConfig()
	e := NewEstimator(cfg, rand.New(rand.NewSource(7)))

	m := domain.Market{
		ID:       "g1",
		Question: "Will the election be contested?",
		Category: domain.CategoryGeneral,
		YesPrice: 0.50,
		NoPrice:  0.50,
		Volume:   500000,
	}

	// Noise is symmetric and bounded, so the fair prob never leaves
	// [yes - noise, yes + noise] and any accepted edge respects the cap.
	for i := 0; i < 1000; i++ {
		edge, ok := e.Estimate(m, nil)
		if !ok {
			continue
		}
		assert.LessOrEqual(t, edge.Magnitude, cfg.GeneralEdgeCap)
		assert.LessOrEqual(t, edge.Magnitude, cfg.GeneralNoise+1e-9)
	}
}

func TestEstimate_GeneralThinVolumeRejected(t *testing.T) {
	e := NewEstimator(testEstimatorConfig(), rand.New(rand.NewSource(1)))

	m := domain.Market{
		ID:       "g2",
		Question: "Obscure market",
		Category: domain.CategoryGeneral,
		YesPrice: 0.50,
		NoPrice:  0.50,
		Volume:   500,
	}
	_, ok := e.Estimate(m, nil)
	assert.False(t, ok)
}

func TestEstimate_DeterministicWithSeed(t *testing.T) {
	m := domain.Market{
		ID:       "g3",
		Question: "Some general market",
		Category: domain.CategoryGeneral,
		YesPrice: 0.50,
		NoPrice:  0.50,
		Volume:   500000,
	}

	run := func() []float64 {
		e := NewEstimator(testEstimatorConfig(), rand.New(rand.NewSource(99)))
		var probs []float64
		for i := 0; i < 50; i++ {
			if edge, ok := e.Estimate(m, nil); ok {
				probs = append(probs, edge.FairProb)
			}
		}
		return probs
	}

	assert.Equal(t, run(), run())
}

func TestSignalFor_MatchesQuestionAsset(t *testing.T) {
	e := NewEstimator(testEstimatorConfig(), rand.New(rand.NewSource(1)))
	signals := map[string]domain.PriceSignal{
		"BTCUSDT": {Symbol: "BTCUSDT", Price: 95000},
		"SOLUSDT": {Symbol: "SOLUSDT", Price: 150},
	}

	m := domain.Market{Question: "Will Solana reach $500?", Slug: "solana-500"}
	sig, ok := e.signalFor(m, signals)
	require.True(t, ok)
	assert.Equal(t, "SOLUSDT", sig.Symbol)

	// No asset mentioned → primary symbol fallback.
	m = domain.Market{Question: "Crypto market cap above $5T?"}
	sig, ok = e.signalFor(m, signals)
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", sig.Symbol)
}
