package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// klinesJSON builds the Binance kline array-of-arrays response from closes.
func klinesJSON(closes []float64) string {
	rows := make([]string, len(closes))
	for i, c := range closes {
		rows[i] = fmt.Sprintf(`[1700000000000, "1.0", "1.1", "0.9", "%.4f", "1000", 1700000300000, "0", 10, "0", "0", "0"]`, c)
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func TestFetchSignals_Success(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 2.0 + float64(i)*0.001
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "5m", r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, klinesJSON(closes))
	}))
	defer srv.Close()

	p := NewProvider(NewClient(srv.URL, time.Second), []string{"XRPUSDT"})
	signals, err := p.FetchSignals(context.Background())

	require.NoError(t, err)
	require.Contains(t, signals, "XRPUSDT")
	sig := signals["XRPUSDT"]
	assert.InDelta(t, 2.019, sig.Price, 0.0001)
	assert.Equal(t, 100.0, sig.RSI) // monotone gains
}

func TestFetchSignals_ShortHistoryDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, klinesJSON([]float64{1, 2, 3}))
	}))
	defer srv.Close()

	p := NewProvider(NewClient(srv.URL, time.Second), []string{"BTCUSDT"})
	signals, err := p.FetchSignals(context.Background())

	require.NoError(t, err) // degraded, not fatal
	assert.Empty(t, signals)
}

func TestFetchSignals_PartialFailure(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "ETHUSDT" {
			http.Error(w, "teapot", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, klinesJSON(closes))
	}))
	defer srv.Close()

	p := NewProvider(NewClient(srv.URL, time.Second), []string{"BTCUSDT", "ETHUSDT"})
	signals, err := p.FetchSignals(context.Background())

	require.NoError(t, err)
	assert.Contains(t, signals, "BTCUSDT")
	assert.NotContains(t, signals, "ETHUSDT")
}

func TestExtractCloses_Malformed(t *testing.T) {
	var rows [][]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`[[1, "a"]]`), &rows))
	_, err := extractCloses(rows)
	assert.Error(t, err)
}
