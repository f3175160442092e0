package ports

import (
	"context"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

// MarketProvider fetches the currently open prediction markets.
type MarketProvider interface {
	// FetchOpenMarkets returns all open two-outcome markets, following
	// pagination until an empty page or the provider's configured cap.
	// Individual malformed records are dropped, never the whole batch.
	FetchOpenMarkets(ctx context.Context) ([]domain.Market, error)
}
