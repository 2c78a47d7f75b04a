package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsim/internal/analytics"
	"marketsim/internal/domain"
)

func sampleTrade() domain.TradeRecord {
	return domain.TradeRecord{
		Date:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Asset:     "600519",
		Action:    domain.Buy,
		Quantity:  decimal.NewFromInt(1000),
		RawPrice:  decimal.NewFromInt(100),
		ExecPrice: decimal.RequireFromString("100.1"),
		Gross:     decimal.RequireFromString("100100"),
		Cost:      decimal.RequireFromString("25.03"),
		NetCash:   decimal.RequireFromString("-100125.03"),
	}
}

func TestConsole_NotifyPrintsDecisions(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.Notify(context.Background(), "trader", []string{"BUY 1000 600519"}))
	assert.Contains(t, buf.String(), "decisions for trader")
	assert.Contains(t, buf.String(), "BUY 1000 600519")
}

func TestConsole_NotifyEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.Notify(context.Background(), "trader", nil))
	assert.Contains(t, buf.String(), "no decisions")
}

func TestConsole_PrintTradesCompact(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	c.PrintTrades("demo", []domain.TradeRecord{sampleTrade()})
	out := buf.String()
	assert.Contains(t, out, "demo — 1 trades")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "600519")
}

func TestConsole_PrintTradesTable(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	c.PrintTrades("demo", []domain.TradeRecord{sampleTrade()})
	out := buf.String()
	assert.Contains(t, out, "100.1000") // exec price column
	assert.Contains(t, out, "2024-01-02")
}

func TestConsole_PrintTradesEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	c.PrintTrades("demo", nil)
	assert.Contains(t, buf.String(), "no trades executed")
}

func TestConsole_PrintReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	c.PrintReport("demo", analytics.Report{
		InitialCapital: 1_000_000,
		FinalEquity:    1_100_000,
		TotalReturn:    0.1,
		MaxDrawdown:    -0.25,
		SharpeRatio:    1.5,
	})
	out := buf.String()
	assert.Contains(t, out, "=== demo ===")
	assert.Contains(t, out, "10.00%")
	assert.Contains(t, out, "-25.00%")
}
