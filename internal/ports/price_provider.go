package ports

import (
	"context"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

// PriceProvider supplies the current crypto price signals.
type PriceProvider interface {
	// FetchSignals returns one PriceSignal per configured symbol. A failed
	// or short-history symbol is simply absent from the result; an empty
	// map means "no signal this scan", never a fatal condition.
	FetchSignals(ctx context.Context) (map[string]domain.PriceSignal, error)
}
