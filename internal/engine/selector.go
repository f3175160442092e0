package engine

import (
	"sort"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

// Selector ranks the scan's candidate edges and returns the bounded batch
// worth executing.
type Selector struct {
	cryptoPriority float64
	maxPerScan     int
}

// NewSelector creates a Selector. cryptoPriority > 1 ranks crypto-tagged
// markets ahead of general ones at equal edge.
func NewSelector(cryptoPriority float64, maxPerScan int) *Selector {
	if cryptoPriority <= 0 {
		cryptoPriority = 1
	}
	if maxPerScan <= 0 {
		maxPerScan = 1
	}
	return &Selector{cryptoPriority: cryptoPriority, maxPerScan: maxPerScan}
}

// Select drops markets the ledger has already traded, ranks the rest by
// priority-weighted edge and returns at most maxPerScan opportunities.
// Ties break by larger volume, then lowest market ID, so identical inputs
// always select identically.
func (s *Selector) Select(edges []domain.Edge, alreadyTraded func(marketID string) bool) []domain.Edge {
	candidates := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		if alreadyTraded(e.Market.ID) {
			continue
		}
		candidates = append(candidates, e)
	}

	sort.Slice(candidates, func(i, j int) bool {
		si, sj := candidates[i].Score(s.cryptoPriority), candidates[j].Score(s.cryptoPriority)
		if si != sj {
			return si > sj
		}
		if candidates[i].Market.Volume != candidates[j].Market.Volume {
			return candidates[i].Market.Volume > candidates[j].Market.Volume
		}
		return candidates[i].Market.ID < candidates[j].Market.ID
	})

	if len(candidates) > s.maxPerScan {
		candidates = candidates[:s.maxPerScan]
	}
	return candidates
}
