package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsim/internal/domain"
)

func sampleTrade() domain.TradeRecord {
	return domain.TradeRecord{
		ID:        "t1",
		Date:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Asset:     "600519",
		Action:    domain.Sell,
		Quantity:  decimal.NewFromInt(500),
		RawPrice:  decimal.NewFromInt(110),
		ExecPrice: decimal.RequireFromString("109.89"),
		Gross:     decimal.RequireFromString("54945"),
		Cost:      decimal.RequireFromString("41.21"),
		NetCash:   decimal.RequireFromString("54903.79"),
	}
}

func TestWriteTrades_RowLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrades(&buf, []domain.TradeRecord{sampleTrade()}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, tradeHeader, rows[0])
	assert.Equal(t, []string{
		"2024-01-02", "600519", "SELL", "500", "110", "109.89",
		"54945.00", "41.21", "54903.79", "-500",
	}, rows[1])
}

func TestWriteTrades_EmptyLogStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrades(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWriteEquityCurve(t *testing.T) {
	var buf bytes.Buffer
	snaps := []domain.EquitySnapshot{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Equity: 1000.5},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Equity: 1010},
	}
	require.NoError(t, WriteEquityCurve(&buf, snaps))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-01-02", "1000.50"}, rows[1])
	assert.Equal(t, []string{"2024-01-03", "1010.00"}, rows[2])
}
