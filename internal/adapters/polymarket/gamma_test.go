package polymarket_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/edgesim/internal/adapters/polymarket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsPage = `[
	{"id": 101, "question": "Will Bitcoin close above $95k today?",
	 "slug": "btc-above-95k", "outcomePrices": "[\"0.40\", \"0.60\"]",
	 "volume": "250000", "liquidity": "80000", "active": true},
	{"id": 102, "question": "Will the election be contested?",
	 "slug": "election-contested", "outcomePrices": ["0.55", "0.45"],
	 "volume": "1200000", "liquidity": "300000", "active": true},
	{"id": 103, "question": "Broken market", "slug": "broken",
	 "outcomePrices": "[]", "volume": "10", "active": true}
]`

func TestFetchOpenMarkets_DropsMalformedKeepsBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("closed"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") != "0" {
			fmt.Fprint(w, "[]")
			return
		}
		fmt.Fprint(w, marketsPage)
	}))
	defer srv.Close()

	p := polymarket.NewProvider(polymarket.NewClient(srv.URL, time.Second), 500, 4)
	markets, err := p.FetchOpenMarkets(context.Background())

	require.NoError(t, err)
	require.Len(t, markets, 2) // market 103 dropped, siblings kept
	assert.Equal(t, "101", markets[0].ID)
	assert.Equal(t, "102", markets[1].ID)
}

func TestFetchOpenMarkets_Pagination(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Header().Set("Content-Type", "application/json")
		offset := r.URL.Query().Get("offset")
		if offset == "0" {
			// Full page of `limit` records forces a second request.
			fmt.Fprint(w, `[{"id": 1, "question": "q1", "outcomePrices": ["0.5","0.5"], "volume": "1"},
				{"id": 2, "question": "q2", "outcomePrices": ["0.5","0.5"], "volume": "1"}]`)
			return
		}
		fmt.Fprint(w, "[]")
	}))
	defer srv.Close()

	p := polymarket.NewProvider(polymarket.NewClient(srv.URL, time.Second), 2, 4)
	markets, err := p.FetchOpenMarkets(context.Background())

	require.NoError(t, err)
	assert.Len(t, markets, 2)
	assert.Equal(t, 2, pages)
}

func TestFetchOpenMarkets_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := polymarket.NewProvider(polymarket.NewClient(srv.URL, time.Second), 500, 1)
	_, err := p.FetchOpenMarkets(context.Background())
	assert.Error(t, err)
}
