package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/edgesim/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	defaultWSBase  = "wss://stream.binance.com:9443/ws"
	readTimeout    = 60 * time.Second
	pingInterval   = 20 * time.Second
	reconnectWait  = 5 * time.Second
	sampleInterval = 30 * time.Second
	sampleLimit    = klineLimit
)

// StreamProvider implements ports.PriceProvider over the Binance websocket
// ticker stream. It keeps the latest ticker per symbol plus a sampled price
// series for the RSI window; FetchSignals reads the cache and never blocks
// on the network.
type StreamProvider struct {
	base    string
	symbols []string

	mu     sync.Mutex
	latest map[string]tickerState
}

type tickerState struct {
	price     float64
	changePct float64 // 24h rolling change from the ticker payload
	samples   []float64
	sampledAt time.Time
	updatedAt time.Time
}

// NewStreamProvider creates a streaming provider for the given symbols.
// Run must be started before signals become available.
func NewStreamProvider(base string, symbols []string) *StreamProvider {
	if base == "" {
		base = defaultWSBase
	}
	return &StreamProvider{
		base:    base,
		symbols: symbols,
		latest:  make(map[string]tickerState, len(symbols)),
	}
}

// Run maintains the websocket connection until the context is cancelled,
// reconnecting on any error. Intended to run in its own goroutine.
func (p *StreamProvider) Run(ctx context.Context) {
	for {
		if err := p.connectAndPump(ctx); err != nil {
			slog.Warn("binance stream disconnected", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectWait):
		}
	}
}

// FetchSignals returns the cached signals. Symbols whose last ticker is
// older than a minute are considered stale and omitted.
func (p *StreamProvider) FetchSignals(_ context.Context) (map[string]domain.PriceSignal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	signals := make(map[string]domain.PriceSignal, len(p.latest))
	now := time.Now()
	for symbol, st := range p.latest {
		if now.Sub(st.updatedAt) > time.Minute {
			continue
		}
		sig := domain.PriceSignal{
			Symbol:          symbol,
			Price:           st.price,
			RecentChangePct: st.changePct,
			RSI:             50, // neutral until the sample window fills
		}
		if len(st.samples) >= minHistory {
			sig.RSI = computeRSI(st.samples)
		}
		sig.Momentum = classifyMomentum(sig.RSI, sig.RecentChangePct)
		signals[symbol] = sig
	}
	return signals, nil
}

// connectAndPump dials, subscribes, and reads tickers until an error or
// context cancellation.
func (p *StreamProvider) connectAndPump(ctx context.Context) error {
	streams := make([]string, len(p.symbols))
	for i, s := range p.symbols {
		streams[i] = strings.ToLower(s) + "@ticker"
	}
	url := p.base + "/" + strings.Join(streams, "/")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.base, err)
	}
	defer conn.Close()
	slog.Info("binance stream connected", "symbols", len(p.symbols))

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go p.pingLoop(ctx, conn, done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		p.handleTicker(raw)
	}
}

func (p *StreamProvider) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// binanceTicker is the subset of the 24h ticker payload we read.
type binanceTicker struct {
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	ChangePct string `json:"P"`
}

// handleTicker updates the cache from one raw ticker message. Unparseable
// messages (subscription acks, malformed frames) are ignored.
func (p *StreamProvider) handleTicker(raw []byte) {
	var t binanceTicker
	if err := json.Unmarshal(raw, &t); err != nil || t.Symbol == "" {
		return
	}
	price, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil || price <= 0 {
		return
	}
	changePct, _ := strconv.ParseFloat(t.ChangePct, 64)

	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.latest[t.Symbol]
	st.price = price
	st.changePct = changePct
	st.updatedAt = now
	if now.Sub(st.sampledAt) >= sampleInterval {
		st.samples = append(st.samples, price)
		if len(st.samples) > sampleLimit {
			st.samples = st.samples[len(st.samples)-sampleLimit:]
		}
		st.sampledAt = now
	}
	p.latest[t.Symbol] = st
}
