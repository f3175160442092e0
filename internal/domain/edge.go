package domain

// Side is the outcome a simulated position is taken on.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Edge is the scored opportunity for one market side: the gap between the
// engine's fair-probability estimate and the quoted price. Derived fresh
// each scan and discarded with it.
type Edge struct {
	Market     Market
	Side       Side
	FairProb   float64 // side-adjusted: probability that this side pays out
	Price      float64 // quoted price of the chosen side
	Magnitude  float64 // fairProb - price, always >= 0 for emitted edges
	Confidence float64
}

// Score is the ranking key used by the selector: category priority times
// edge magnitude.
func (e Edge) Score(cryptoPriority float64) float64 {
	if e.Market.Category == CategoryCrypto {
		return cryptoPriority * e.Magnitude
	}
	return e.Magnitude
}
