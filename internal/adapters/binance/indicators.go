package binance

import "github.com/alejandrodnm/edgesim/internal/domain"

const rsiPeriod = 14

// signalFromCloses derives the per-scan PriceSignal from a close series:
// last price, change over the most recent candle, a simple-average RSI and
// the momentum classification. Requires len(closes) > rsiPeriod.
func signalFromCloses(symbol string, closes []float64) domain.PriceSignal {
	price := closes[len(closes)-1]
	prev := closes[len(closes)-2]

	changePct := 0.0
	if prev != 0 {
		changePct = (price - prev) / prev * 100
	}

	rsi := computeRSI(closes)

	return domain.PriceSignal{
		Symbol:          symbol,
		Price:           price,
		RecentChangePct: changePct,
		RSI:             rsi,
		Momentum:        classifyMomentum(rsi, changePct),
	}
}

// computeRSI is the simple-average RSI over the last rsiPeriod deltas.
func computeRSI(closes []float64) float64 {
	deltas := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		deltas = append(deltas, closes[i]-closes[i-1])
	}
	if len(deltas) > rsiPeriod {
		deltas = deltas[len(deltas)-rsiPeriod:]
	}

	var avgGain, avgLoss float64
	for _, d := range deltas {
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= rsiPeriod
	avgLoss /= rsiPeriod

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// classifyMomentum buckets the signal: an RSI swing or a >0.1% candle move
// is enough to call a direction on the 5m timeframe.
func classifyMomentum(rsi, changePct float64) domain.Momentum {
	switch {
	case rsi < 40 || changePct > 0.1:
		return domain.MomentumBullish
	case rsi > 60 || changePct < -0.1:
		return domain.MomentumBearish
	default:
		return domain.MomentumNeutral
	}
}
