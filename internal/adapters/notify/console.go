package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"marketsim/internal/analytics"
	"marketsim/internal/domain"
)

// Console implements ports.Notifier and renders trade logs and performance
// reports for the terminal.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify prints the decision lines addressed to the recipient. It never
// fails — the console is always reachable.
func (c *Console) Notify(_ context.Context, recipient string, decisions []string) error {
	if len(decisions) == 0 {
		fmt.Fprintf(c.out, "[%s] no decisions for %s\n", time.Now().Format("15:04:05"), recipient)
		return nil
	}
	fmt.Fprintf(c.out, "[%s] decisions for %s:\n", time.Now().Format("15:04:05"), recipient)
	for _, d := range decisions {
		fmt.Fprintf(c.out, "  %s\n", d)
	}
	return nil
}

// PrintTrades renders the trade log, as a table or one compact line per
// trade.
func (c *Console) PrintTrades(strategy string, trades []domain.TradeRecord) {
	if len(trades) == 0 {
		fmt.Fprintf(c.out, "\n%s: no trades executed\n", strategy)
		return
	}

	fmt.Fprintf(c.out, "\n%s — %d trades\n", strategy, len(trades))
	if !c.table {
		for _, t := range trades {
			fmt.Fprintf(c.out, "  %s\n", t.Describe())
		}
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Asset", "Action", "Qty", "Raw", "Exec", "Gross", "Cost", "Net Cash")
	for _, t := range trades {
		table.Append(
			t.Date.Format(time.DateOnly),
			t.Asset,
			t.Action.String(),
			t.Quantity.String(),
			t.RawPrice.StringFixed(4),
			t.ExecPrice.StringFixed(4),
			t.Gross.StringFixed(2),
			t.Cost.StringFixed(2),
			t.NetCash.StringFixed(2),
		)
	}
	table.Render()
}

// PrintReport renders the performance summary of one run.
func (c *Console) PrintReport(strategy string, rep analytics.Report) {
	fmt.Fprintf(c.out, "\n=== %s ===\n", strategy)
	fmt.Fprintf(c.out, "  Initial capital:  %.2f\n", rep.InitialCapital)
	fmt.Fprintf(c.out, "  Final equity:     %.2f\n", rep.FinalEquity)
	fmt.Fprintf(c.out, "  Total return:     %.2f%%\n", rep.TotalReturn*100)
	fmt.Fprintf(c.out, "  CAGR:             %.2f%%\n", rep.CAGR*100)
	fmt.Fprintf(c.out, "  Max drawdown:     %.2f%%\n", rep.MaxDrawdown*100)
	fmt.Fprintf(c.out, "  Sharpe ratio:     %.2f\n", rep.SharpeRatio)
	fmt.Fprintf(c.out, "  Duration:         %.0f days (%d snapshots)\n", rep.DurationDays, rep.Snapshots)
}
