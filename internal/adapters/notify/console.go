package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/edgesim/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implements ports.Notifier writing to stdout.
type Console struct {
	out io.Writer
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyTrade prints a one-line summary of a settled trade.
func (c *Console) NotifyTrade(_ context.Context, t domain.Trade) error {
	outcome := "WIN "
	if !t.IsWin {
		outcome = "LOSS"
	}
	tag := "gen"
	if t.Category == domain.CategoryCrypto {
		tag = "cry"
	}

	fmt.Fprintf(c.out, "[%s] %s %s %-3s | edge %4.1f%% | size $%.2f @ %.3f | pnl $%+.2f | capital $%.2f\n",
		t.Timestamp.Format("15:04:05"), outcome, tag, t.Side,
		t.EdgeAtEntry*100, t.Size, t.EntryPrice, t.PnL, t.CapitalAfter)
	fmt.Fprintf(c.out, "   %s\n", domain.TruncateQuestion(t.Question, t.MarketID, 70))
	return nil
}

// NotifyReport prints the periodic performance block.
func (c *Console) NotifyReport(_ context.Context, r domain.Report) error {
	fmt.Fprintln(c.out, "--------------------------------------------------")
	fmt.Fprintf(c.out, "REPORT @ %s UTC | runtime %.1fh | scans %d\n",
		r.Timestamp.Format("15:04"), r.RuntimeHours, r.Scans)
	fmt.Fprintf(c.out, "  capital $%.2f | pnl $%+.2f (%+.1f%%)\n",
		r.Capital, r.PnL, r.ROIPct)
	if r.TradeCount > 0 {
		fmt.Fprintf(c.out, "  trades %d (%d crypto) | win rate %.1f%% | max dd %.1f%%\n",
			r.TradeCount, r.CryptoTrades, r.WinRate, r.MaxDrawdownPct)
	} else {
		fmt.Fprintln(c.out, "  no trades yet")
	}
	fmt.Fprintln(c.out, "--------------------------------------------------")
	return nil
}

// NotifyFinal prints the end-of-run summary with the recent trade table.
func (c *Console) NotifyFinal(_ context.Context, snap domain.Snapshot, r domain.Report) error {
	fmt.Fprintln(c.out, "======================================================")
	fmt.Fprintln(c.out, "  RUN COMPLETE")
	fmt.Fprintln(c.out, "======================================================")
	fmt.Fprintf(c.out, "  Runtime:        %.1f hours (%d scans)\n", r.RuntimeHours, r.Scans)
	fmt.Fprintf(c.out, "  Final capital:  $%.2f (started $%.2f)\n", snap.Capital, snap.InitialCapital)
	fmt.Fprintf(c.out, "  Total P&L:      $%+.2f (%+.1f%%)\n", snap.PnL, snap.ROIPct)
	fmt.Fprintf(c.out, "  Trades:         %d (%d W / %d L, %.1f%% win rate)\n",
		snap.TradeCount, snap.Wins, snap.Losses, snap.WinRate)
	fmt.Fprintf(c.out, "  Max drawdown:   %.1f%%\n", snap.MaxDrawdownPct)
	fmt.Fprintf(c.out, "  Crypto trades:  %d ($%+.2f)\n", r.CryptoTrades, r.CryptoPnL)

	if len(snap.RecentTrades) > 0 {
		fmt.Fprintln(c.out, "\n  Last trades:")
		c.printTradeTable(snap.RecentTrades)
	}
	fmt.Fprintln(c.out, "======================================================")
	return nil
}

func (c *Console) printTradeTable(trades []domain.Trade) {
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Time", "Side", "Market", "Edge", "Size", "PnL", "Capital")

	for _, t := range trades {
		tbl.Append(
			t.Timestamp.Format(time.TimeOnly),
			string(t.Side),
			domain.TruncateQuestion(t.Question, t.MarketID, 40),
			fmt.Sprintf("%.1f%%", t.EdgeAtEntry*100),
			fmt.Sprintf("$%.2f", t.Size),
			fmt.Sprintf("$%+.2f", t.PnL),
			fmt.Sprintf("$%.2f", t.CapitalAfter),
		)
	}
	tbl.Render()
}
