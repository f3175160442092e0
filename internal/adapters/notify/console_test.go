package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/edgesim/internal/adapters/notify"
	"github.com/alejandrodnm/edgesim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrade() domain.Trade {
	return domain.Trade{
		ID:           "t1",
		Timestamp:    time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		MarketID:     "515123",
		Question:     "Will Bitcoin close above $95k today?",
		Category:     domain.CategoryCrypto,
		Side:         domain.SideYes,
		EntryPrice:   0.422,
		Size:         5,
		EdgeAtEntry:  0.08,
		WinProb:      0.47,
		IsWin:        true,
		PnL:          6.85,
		CapitalAfter: 106.85,
	}
}

func TestNotifyTrade(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	require.NoError(t, c.NotifyTrade(context.Background(), sampleTrade()))

	out := buf.String()
	assert.Contains(t, out, "WIN")
	assert.Contains(t, out, "YES")
	assert.Contains(t, out, "$+6.85")
	assert.Contains(t, out, "Will Bitcoin close above $95k today?")
}

func TestNotifyReport_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	r := domain.Report{Timestamp: time.Now().UTC(), Capital: 100}
	require.NoError(t, c.NotifyReport(context.Background(), r))

	assert.Contains(t, buf.String(), "no trades yet")
}

func TestNotifyFinal_IncludesTradeTable(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	snap := domain.Snapshot{
		Capital:        106.85,
		InitialCapital: 100,
		PnL:            6.85,
		ROIPct:         6.85,
		TradeCount:     1,
		Wins:           1,
		WinRate:        100,
		RecentTrades:   []domain.Trade{sampleTrade()},
	}
	r := domain.Report{RuntimeHours: 2.5, Scans: 150, CryptoTrades: 1, CryptoPnL: 6.85}

	require.NoError(t, c.NotifyFinal(context.Background(), snap, r))

	out := buf.String()
	assert.Contains(t, out, "RUN COMPLETE")
	assert.Contains(t, out, "$106.85")
	assert.Contains(t, out, "14:30:00")
}
