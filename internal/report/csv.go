package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"marketsim/internal/domain"
)

var tradeHeader = []string{
	"date", "asset", "action", "quantity", "raw_price", "exec_price",
	"gross", "cost", "net_cash", "quantity_delta",
}

// WriteTrades writes the trade log as CSV, one row per executed fill.
func WriteTrades(w io.Writer, trades []domain.TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return fmt.Errorf("report.WriteTrades: header: %w", err)
	}
	for _, t := range trades {
		row := []string{
			t.Date.Format(time.DateOnly),
			t.Asset,
			t.Action.String(),
			t.Quantity.String(),
			t.RawPrice.String(),
			t.ExecPrice.String(),
			t.Gross.StringFixed(2),
			t.Cost.StringFixed(2),
			t.NetCash.StringFixed(2),
			t.SignedQuantity().String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report.WriteTrades: row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTradesFile writes the trade log to a file, creating or truncating it.
func WriteTradesFile(path string, trades []domain.TradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report.WriteTradesFile: %w", err)
	}
	if err := WriteTrades(f, trades); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteEquityCurve writes the daily equity snapshots as CSV.
func WriteEquityCurve(w io.Writer, snapshots []domain.EquitySnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "equity"}); err != nil {
		return fmt.Errorf("report.WriteEquityCurve: header: %w", err)
	}
	for _, s := range snapshots {
		if err := cw.Write([]string{
			s.Date.Format(time.DateOnly),
			fmt.Sprintf("%.2f", s.Equity),
		}); err != nil {
			return fmt.Errorf("report.WriteEquityCurve: row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
