package ports

import (
	"context"

	"github.com/alejandrodnm/edgesim/internal/domain"
)

// Notifier presents engine activity to the user.
type Notifier interface {
	// NotifyTrade prints a single settled trade.
	NotifyTrade(ctx context.Context, trade domain.Trade) error

	// NotifyReport prints a periodic performance report.
	NotifyReport(ctx context.Context, report domain.Report) error

	// NotifyFinal prints the end-of-run summary.
	NotifyFinal(ctx context.Context, snap domain.Snapshot, report domain.Report) error
}
