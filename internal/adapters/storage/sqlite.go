package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/edgesim/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- One row per settled simulated trade, append-only, insertion order is
-- chronological order.
CREATE TABLE IF NOT EXISTS trades (
    seq           INTEGER PRIMARY KEY AUTOINCREMENT,
    id            TEXT    NOT NULL UNIQUE,
    ts            DATETIME NOT NULL,
    market_id     TEXT    NOT NULL,
    question      TEXT,
    category      TEXT    NOT NULL,
    side          TEXT    NOT NULL,
    entry_price   REAL    NOT NULL,
    size          REAL    NOT NULL,
    edge_at_entry REAL    NOT NULL,
    win_prob      REAL    NOT NULL,
    is_win        INTEGER NOT NULL,
    pnl           REAL    NOT NULL,
    capital_after REAL    NOT NULL
);

-- One row per reporting interval, append-only.
CREATE TABLE IF NOT EXISTS reports (
    seq              INTEGER PRIMARY KEY AUTOINCREMENT,
    ts               DATETIME NOT NULL,
    runtime_hours    REAL    NOT NULL,
    scans            INTEGER NOT NULL,
    capital          REAL    NOT NULL,
    pnl              REAL    NOT NULL,
    roi_pct          REAL    NOT NULL,
    trade_count      INTEGER NOT NULL,
    wins             INTEGER NOT NULL,
    losses           INTEGER NOT NULL,
    win_rate         REAL    NOT NULL,
    max_drawdown_pct REAL    NOT NULL,
    crypto_trades    INTEGER NOT NULL,
    crypto_pnl       REAL    NOT NULL,
    avg_trade_pnl    REAL    NOT NULL
);

-- The single run-state snapshot, overwritten every scan.
CREATE TABLE IF NOT EXISTS engine_state (
    id               INTEGER PRIMARY KEY CHECK (id = 1),
    ts               DATETIME NOT NULL,
    capital          REAL    NOT NULL,
    initial_capital  REAL    NOT NULL,
    pnl              REAL    NOT NULL,
    roi_pct          REAL    NOT NULL,
    trade_count      INTEGER NOT NULL,
    wins             INTEGER NOT NULL,
    losses           INTEGER NOT NULL,
    win_rate         REAL    NOT NULL,
    max_drawdown_pct REAL    NOT NULL,
    recent_trades    TEXT    NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_trades_ts  ON trades(ts);
CREATE INDEX IF NOT EXISTS idx_reports_ts ON reports(ts);
`

// SQLiteStorage implements ports.Storage using SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveTrade appends one settled trade.
func (s *SQLiteStorage) SaveTrade(ctx context.Context, t domain.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		   (id, ts, market_id, question, category, side, entry_price, size,
		    edge_at_entry, win_prob, is_win, pnl, capital_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Timestamp.UTC(), t.MarketID, t.Question, string(t.Category),
		string(t.Side), t.EntryPrice, t.Size, t.EdgeAtEntry, t.WinProb,
		boolToInt(t.IsWin), t.PnL, t.CapitalAfter,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: %w", err)
	}
	return nil
}

// SaveSnapshot overwrites the single engine_state row.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	recent, err := json.Marshal(snap.RecentTrades)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: marshal recent trades: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO engine_state
		   (id, ts, capital, initial_capital, pnl, roi_pct, trade_count,
		    wins, losses, win_rate, max_drawdown_pct, recent_trades)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    ts = excluded.ts,
		    capital = excluded.capital,
		    initial_capital = excluded.initial_capital,
		    pnl = excluded.pnl,
		    roi_pct = excluded.roi_pct,
		    trade_count = excluded.trade_count,
		    wins = excluded.wins,
		    losses = excluded.losses,
		    win_rate = excluded.win_rate,
		    max_drawdown_pct = excluded.max_drawdown_pct,
		    recent_trades = excluded.recent_trades`,
		snap.Timestamp.UTC(), snap.Capital, snap.InitialCapital, snap.PnL,
		snap.ROIPct, snap.TradeCount, snap.Wins, snap.Losses, snap.WinRate,
		snap.MaxDrawdownPct, string(recent),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: %w", err)
	}
	return nil
}

// AppendReport adds one report row.
func (s *SQLiteStorage) AppendReport(ctx context.Context, r domain.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports
		   (ts, runtime_hours, scans, capital, pnl, roi_pct, trade_count,
		    wins, losses, win_rate, max_drawdown_pct, crypto_trades,
		    crypto_pnl, avg_trade_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UTC(), r.RuntimeHours, r.Scans, r.Capital, r.PnL,
		r.ROIPct, r.TradeCount, r.Wins, r.Losses, r.WinRate,
		r.MaxDrawdownPct, r.CryptoTrades, r.CryptoPnL, r.AvgTradePnL,
	)
	if err != nil {
		return fmt.Errorf("storage.AppendReport: %w", err)
	}
	return nil
}

// GetTrades returns the trade history in insertion order.
func (s *SQLiteStorage) GetTrades(ctx context.Context) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, market_id, question, category, side, entry_price,
		       size, edge_at_entry, win_prob, is_win, pnl, capital_after
		FROM trades ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTrades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var ts time.Time
		var category, side string
		var isWin int
		if err := rows.Scan(&t.ID, &ts, &t.MarketID, &t.Question, &category,
			&side, &t.EntryPrice, &t.Size, &t.EdgeAtEntry, &t.WinProb,
			&isWin, &t.PnL, &t.CapitalAfter); err != nil {
			return nil, fmt.Errorf("storage.GetTrades: scan: %w", err)
		}
		t.Timestamp = ts.UTC()
		t.Category = domain.MarketCategory(category)
		t.Side = domain.Side(side)
		t.IsWin = isWin != 0
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetReports returns all report rows in chronological order.
func (s *SQLiteStorage) GetReports(ctx context.Context) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, runtime_hours, scans, capital, pnl, roi_pct, trade_count,
		       wins, losses, win_rate, max_drawdown_pct, crypto_trades,
		       crypto_pnl, avg_trade_pnl
		FROM reports ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetReports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var r domain.Report
		var ts time.Time
		if err := rows.Scan(&ts, &r.RuntimeHours, &r.Scans, &r.Capital,
			&r.PnL, &r.ROIPct, &r.TradeCount, &r.Wins, &r.Losses,
			&r.WinRate, &r.MaxDrawdownPct, &r.CryptoTrades, &r.CryptoPnL,
			&r.AvgTradePnL); err != nil {
			return nil, fmt.Errorf("storage.GetReports: scan: %w", err)
		}
		r.Timestamp = ts.UTC()
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetSnapshot returns the persisted run-state snapshot, or sql.ErrNoRows
// if none has been written yet.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	var ts time.Time
	var recent string

	err := s.db.QueryRowContext(ctx, `
		SELECT ts, capital, initial_capital, pnl, roi_pct, trade_count,
		       wins, losses, win_rate, max_drawdown_pct, recent_trades
		FROM engine_state WHERE id = 1`).Scan(
		&ts, &snap.Capital, &snap.InitialCapital, &snap.PnL, &snap.ROIPct,
		&snap.TradeCount, &snap.Wins, &snap.Losses, &snap.WinRate,
		&snap.MaxDrawdownPct, &recent)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("storage.GetSnapshot: %w", err)
	}

	snap.Timestamp = ts.UTC()
	if err := json.Unmarshal([]byte(recent), &snap.RecentTrades); err != nil {
		return domain.Snapshot{}, fmt.Errorf("storage.GetSnapshot: recent trades: %w", err)
	}
	return snap, nil
}

// Close closes the database connection cleanly.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
