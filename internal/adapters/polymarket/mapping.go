package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

// cryptoKeywords classifies a market as crypto-relevant when its question
// or slug mentions an asset we have a price feed for.
var cryptoKeywords = []string{
	"bitcoin", "btc", "ethereum", "eth", "solana", "sol", "xrp", "crypto",
}

// mapMarket converts a raw Gamma market to a domain.Market. A record
// missing its ID or either outcome price is malformed and rejected; the
// caller drops it without failing the batch.
func mapMarket(gm gammaMarket) (domain.Market, error) {
	id := gm.ID.String()
	if id == "" {
		return domain.Market{}, fmt.Errorf("missing market id")
	}

	yes, no, err := parseOutcomePrices(gm.OutcomePrices)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market %s: %w", id, err)
	}

	m := domain.Market{
		ID:       id,
		Question: gm.Question,
		Slug:     gm.Slug,
		Category: classify(gm.Question, gm.Slug),
		YesPrice: yes,
		NoPrice:  no,
	}
	if v, err := gm.Volume.Float64(); err == nil && v >= 0 {
		m.Volume = v
	}
	if l, err := gm.Liquidity.Float64(); err == nil && l >= 0 {
		m.Liquidity = l
	}
	return m, nil
}

// parseOutcomePrices extracts the YES/NO quotes. Gamma returns
// outcomePrices either as a JSON array or as a JSON array encoded inside a
// string ("[\"0.4\", \"0.6\"]"); both forms occur in the wild.
func parseOutcomePrices(raw json.RawMessage) (yes, no float64, err error) {
	if len(raw) == 0 {
		return 0, 0, fmt.Errorf("missing outcome prices")
	}

	var arr []json.Number
	if err := json.Unmarshal(raw, &arr); err != nil {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return 0, 0, fmt.Errorf("unparseable outcome prices")
		}
		var strArr []string
		if err := json.Unmarshal([]byte(encoded), &strArr); err != nil {
			return 0, 0, fmt.Errorf("unparseable outcome prices")
		}
		for _, s := range strArr {
			arr = append(arr, json.Number(s))
		}
	}

	if len(arr) < 2 {
		return 0, 0, fmt.Errorf("want 2 outcome prices, got %d", len(arr))
	}

	yes, errYes := strconv.ParseFloat(arr[0].String(), 64)
	no, errNo := strconv.ParseFloat(arr[1].String(), 64)
	if errYes != nil || errNo != nil {
		return 0, 0, fmt.Errorf("non-numeric outcome prices")
	}
	if yes <= 0 || yes >= 1 || no <= 0 || no >= 1 {
		return 0, 0, fmt.Errorf("outcome prices out of (0,1): yes=%v no=%v", yes, no)
	}
	return yes, no, nil
}

// classify tags a market crypto or general by keyword match.
func classify(question, slug string) domain.MarketCategory {
	q := strings.ToLower(question)
	s := strings.ToLower(slug)
	for _, kw := range cryptoKeywords {
		if strings.Contains(q, kw) || strings.Contains(s, kw) {
			return domain.CategoryCrypto
		}
	}
	return domain.CategoryGeneral
}
