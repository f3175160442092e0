package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/alejandrodnm/edgesim/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://api.binance.com"
	klinesPath  = "/api/v3/klines"

	// Binance allows 1200 request weight/min; we need a handful per scan.
	requestsPerSec = 10

	klineInterval = "5m"
	klineLimit    = 20
	minHistory    = 15 // below this the RSI window is not filled

	maxRetries    = 2
	baseRetryWait = 300 * time.Millisecond
)

// Client fetches klines from the Binance spot REST API.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient creates a Client for the given base URL. An empty base selects
// the production endpoint.
func NewClient(base string, timeout time.Duration) *Client {
	if base == "" {
		base = defaultBase
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		base:    base,
		limiter: rate.NewLimiter(requestsPerSec, 5),
	}
}

// Provider implements ports.PriceProvider over REST klines.
type Provider struct {
	client  *Client
	symbols []string
}

// NewProvider creates a price provider for the given symbol list.
func NewProvider(client *Client, symbols []string) *Provider {
	return &Provider{client: client, symbols: symbols}
}

// FetchSignals returns one PriceSignal per symbol that produced a usable
// kline history. A failed or short-history symbol is dropped with a log
// line; an empty result is "no signal this scan", never an error upward.
func (p *Provider) FetchSignals(ctx context.Context) (map[string]domain.PriceSignal, error) {
	signals := make(map[string]domain.PriceSignal, len(p.symbols))
	for _, symbol := range p.symbols {
		sig, err := p.client.fetchSignal(ctx, symbol)
		if err != nil {
			slog.Warn("price signal unavailable", "symbol", symbol, "err", err)
			continue
		}
		signals[symbol] = sig
	}
	return signals, nil
}

// fetchSignal fetches recent klines for one symbol and derives indicators.
func (c *Client) fetchSignal(ctx context.Context, symbol string) (domain.PriceSignal, error) {
	url := fmt.Sprintf("%s%s?symbol=%s&interval=%s&limit=%d",
		c.base, klinesPath, symbol, klineInterval, klineLimit)

	var raw [][]json.RawMessage
	if err := c.get(ctx, url, &raw); err != nil {
		return domain.PriceSignal{}, fmt.Errorf("binance.fetchSignal %s: %w", symbol, err)
	}

	closes, err := extractCloses(raw)
	if err != nil {
		return domain.PriceSignal{}, fmt.Errorf("binance.fetchSignal %s: %w", symbol, err)
	}
	if len(closes) < minHistory {
		return domain.PriceSignal{}, fmt.Errorf("binance.fetchSignal %s: short history (%d closes)", symbol, len(closes))
	}

	return signalFromCloses(symbol, closes), nil
}

// extractCloses pulls the close column (index 4, quoted decimal) out of the
// kline rows.
func extractCloses(rows [][]json.RawMessage) ([]float64, error) {
	closes := make([]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("kline row too short (%d fields)", len(row))
		}
		var s string
		if err := json.Unmarshal(row[4], &s); err != nil {
			return nil, fmt.Errorf("kline close: %w", err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("kline close %q: %w", s, err)
		}
		closes = append(closes, v)
	}
	return closes, nil
}

// get performs a GET with rate limiting and a couple of retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
