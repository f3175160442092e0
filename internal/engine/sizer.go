package engine

import (
	"errors"
	"fmt"
)

// ErrInsufficientFunds aborts a single opportunity when the capital left
// cannot support a well-formed position. It never terminates the run.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Sizer turns an accepted edge into a position size via a capped Kelly
// fraction. The multiplier approximates full Kelly from the edge alone;
// the cap bounds variance.
type Sizer struct {
	kellyMultiplier float64
	kellyCap        float64
	maxPositionPct  float64
	minTradeSize    float64
	capitalFloor    float64
}

// NewSizer creates a Sizer with the given risk limits.
func NewSizer(kellyMultiplier, kellyCap, maxPositionPct, minTradeSize, capitalFloor float64) *Sizer {
	return &Sizer{
		kellyMultiplier: kellyMultiplier,
		kellyCap:        kellyCap,
		maxPositionPct:  maxPositionPct,
		minTradeSize:    minTradeSize,
		capitalFloor:    capitalFloor,
	}
}

// Size computes the position for the given edge magnitude and current
// capital. The result always satisfies
// minTradeSize <= size <= capital*maxPositionPct; when no size in that
// range exists, or capital has fallen to the floor, ErrInsufficientFunds
// is returned.
func (s *Sizer) Size(edgeMagnitude, capital float64) (float64, error) {
	if capital <= s.capitalFloor {
		return 0, fmt.Errorf("capital %.2f at or below floor %.2f: %w",
			capital, s.capitalFloor, ErrInsufficientFunds)
	}

	maxSize := capital * s.maxPositionPct
	if s.minTradeSize > maxSize || s.minTradeSize > capital {
		return 0, fmt.Errorf("min trade size %.2f exceeds position limit %.2f: %w",
			s.minTradeSize, maxSize, ErrInsufficientFunds)
	}

	kelly := min(edgeMagnitude*s.kellyMultiplier, s.kellyCap)
	size := clamp(capital*kelly, s.minTradeSize, maxSize)
	if size > capital {
		return 0, fmt.Errorf("size %.2f exceeds capital %.2f: %w", size, capital, ErrInsufficientFunds)
	}
	return size, nil
}
