package ports

import (
	"context"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

// Storage persists trades, snapshots and periodic reports.
type Storage interface {
	// SaveTrade appends a settled trade to the history.
	SaveTrade(ctx context.Context, trade domain.Trade) error

	// SaveSnapshot overwrites the single run-state snapshot.
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error

	// AppendReport adds one row to the append-only report log.
	AppendReport(ctx context.Context, report domain.Report) error

	// GetTrades returns the recorded trade history in insertion order.
	GetTrades(ctx context.Context) ([]domain.Trade, error)

	// GetReports returns all report rows in chronological order.
	GetReports(ctx context.Context) ([]domain.Report, error)

	// Close releases the underlying database cleanly.
	Close() error
}
