package polymarket

import (
	"encoding/json"
	"io"
)

// Raw DTOs from the Gamma API. Only used inside this package; conversion to
// domain entities happens in mapping.go.

// gammaMarket is one market as returned by GET /markets.
//
// Gamma is loose with types: ids come back as numbers or strings depending
// on the endpoint, volume/liquidity as quoted numbers, and outcomePrices as
// a JSON array *encoded inside a string*. Everything that varies is kept as
// json.Number or RawMessage and resolved during mapping.
type gammaMarket struct {
	ID            json.Number     `json:"id"`
	Question      string          `json:"question"`
	Slug          string          `json:"slug"`
	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	Volume        json.Number     `json:"volume"`
	Liquidity     json.Number     `json:"liquidity"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
}

// gammaMarketsResponse is the page shape of GET /markets.
type gammaMarketsResponse []gammaMarket

// decodeBody decodes a JSON response body into out.
func decodeBody(body io.Reader, out any) error {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	return dec.Decode(out)
}
