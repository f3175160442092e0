package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

const gammaMarketsPath = "/markets"

// Provider implements ports.MarketProvider on top of the Gamma API.
type Provider struct {
	client   *Client
	limit    int
	maxPages int
}

// NewProvider creates a market provider that pages through open markets
// with the given page size, stopping after maxPages or an empty page.
func NewProvider(client *Client, limit, maxPages int) *Provider {
	if limit <= 0 {
		limit = 500
	}
	if maxPages <= 0 {
		maxPages = 4
	}
	return &Provider{client: client, limit: limit, maxPages: maxPages}
}

// FetchOpenMarkets returns the currently open markets, normalized.
// Individual records that fail to map are logged and dropped; the batch
// always survives.
func (p *Provider) FetchOpenMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	dropped := 0

	for page := 0; page < p.maxPages; page++ {
		url := fmt.Sprintf("%s%s?closed=false&limit=%d&offset=%d",
			p.client.base, gammaMarketsPath, p.limit, page*p.limit)

		var resp gammaMarketsResponse
		if err := p.client.get(ctx, url, &resp); err != nil {
			return nil, fmt.Errorf("polymarket.FetchOpenMarkets: page %d: %w", page, err)
		}
		if len(resp) == 0 {
			break
		}

		for _, gm := range resp {
			m, err := mapMarket(gm)
			if err != nil {
				slog.Debug("dropping malformed market", "id", gm.ID.String(), "err", err)
				dropped++
				continue
			}
			markets = append(markets, m)
		}

		if len(resp) < p.limit {
			break
		}
	}

	slog.Debug("market fetch complete", "markets", len(markets), "dropped", dropped)
	return markets, nil
}
