package provider

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketsim/internal/domain"
)

// dateLayouts are tried in order when parsing the date column. Exported CSV
// dumps are not consistent about this.
var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

// LocalCSV serves bars from <dir>/<asset>.csv files. Column names are
// matched case-insensitively; only date and close are required.
type LocalCSV struct {
	dir string
}

// NewLocalCSV creates a provider reading from the given directory.
func NewLocalCSV(dir string) *LocalCSV {
	return &LocalCSV{dir: dir}
}

// Source identifies this provider in cache keys.
func (p *LocalCSV) Source() string { return "local" }

// FetchBars parses the asset's CSV file and returns its full contents sorted
// by date. Range trimming is left to the price history store.
func (p *LocalCSV) FetchBars(ctx context.Context, asset string, _, _ time.Time, _ time.Duration) ([]domain.PriceBar, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	path := filepath.Join(p.dir, asset+".csv")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("provider.FetchBars: read %q: %w", path, err)
	}

	bars, err := parseCSV(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("provider.FetchBars: parse %q: %w", path, err)
	}
	return bars, raw, nil
}

func parseCSV(raw []byte) ([]domain.PriceBar, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	dateCol, ok := findColumn(cols, "date", "trade_date", "day", "time")
	if !ok {
		return nil, fmt.Errorf("no date column in header %v", header)
	}
	closeCol, ok := findColumn(cols, "close", "adj close", "adj_close", "price")
	if !ok {
		return nil, fmt.Errorf("no close column in header %v", header)
	}
	openCol, hasOpen := findColumn(cols, "open")
	if !hasOpen {
		openCol = -1
	}
	highCol, hasHigh := findColumn(cols, "high")
	lowCol, hasLow := findColumn(cols, "low")
	volCol, hasVol := findColumn(cols, "volume", "vol")
	divCol, hasDiv := findColumn(cols, "dividend", "dividends")
	peCol, hasPE := findColumn(cols, "pe", "pe_ratio", "p/e")

	var bars []domain.PriceBar
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err != nil {
			break
		}
		date, err := parseDate(rec[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		b := domain.PriceBar{
			Date:  date,
			Open:  numericField(rec, openCol),
			Close: numericField(rec, closeCol),
		}
		if hasHigh {
			b.High = numericField(rec, highCol)
		}
		if hasLow {
			b.Low = numericField(rec, lowCol)
		}
		if hasVol {
			b.Volume = numericField(rec, volCol)
		}
		if hasDiv {
			b.Dividend = numericField(rec, divCol)
		}
		if hasPE {
			b.PE = numericField(rec, peCol)
		}
		bars = append(bars, b)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func findColumn(cols map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if i, ok := cols[name]; ok {
			return i, true
		}
	}
	return 0, false
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// numericField parses a float cell, treating blanks and junk as zero so one
// missing dividend value does not sink the whole file.
func numericField(rec []string, col int) float64 {
	if col < 0 || col >= len(rec) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
	if err != nil {
		return 0
	}
	return v
}
