package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, asset, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, asset+".csv"), []byte(content), 0o644))
}

func TestLocalCSV_ParsesFullHeader(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "600519", `date,open,close,high,low,volume,dividend,pe
2024-01-03,101,103,104,100,2000,0.5,30
2024-01-02,100,102,103,99,1000,0,29
`)

	p := NewLocalCSV(dir)
	bars, raw, err := p.FetchBars(context.Background(), "600519", time.Time{}, time.Time{}, 24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	require.Len(t, bars, 2)

	// Rows come back sorted by date regardless of file order.
	assert.Equal(t, "2024-01-02", bars[0].Date.Format(time.DateOnly))
	assert.Equal(t, 102.0, bars[0].Close)
	assert.Equal(t, 0.5, bars[1].Dividend)
	assert.Equal(t, 30.0, bars[1].PE)
}

func TestLocalCSV_MinimalHeaderAndAltDateFormat(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAPL", `Date,Close
2024/01/02,185.5
2024/01/03,186.1
`)

	p := NewLocalCSV(dir)
	bars, _, err := p.FetchBars(context.Background(), "AAPL", time.Time{}, time.Time{}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 185.5, bars[0].Close)
	assert.Equal(t, 0.0, bars[0].Open)
	assert.Equal(t, 0.0, bars[0].Volume)
}

func TestLocalCSV_BlankNumericCellIsZero(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAPL", `date,open,close,volume
2024-01-02,,185.5,
`)

	p := NewLocalCSV(dir)
	bars, _, err := p.FetchBars(context.Background(), "AAPL", time.Time{}, time.Time{}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 0.0, bars[0].Open)
	assert.Equal(t, 0.0, bars[0].Volume)
	assert.Equal(t, 185.5, bars[0].Close)
}

func TestLocalCSV_MissingDateColumnFails(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAPL", `open,close
100,101
`)

	p := NewLocalCSV(dir)
	_, _, err := p.FetchBars(context.Background(), "AAPL", time.Time{}, time.Time{}, 24*time.Hour)
	assert.ErrorContains(t, err, "no date column")
}

func TestLocalCSV_UnparseableDateFails(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAPL", `date,close
yesterday,101
`)

	p := NewLocalCSV(dir)
	_, _, err := p.FetchBars(context.Background(), "AAPL", time.Time{}, time.Time{}, 24*time.Hour)
	assert.ErrorContains(t, err, "unparseable date")
}

func TestLocalCSV_MissingFileFails(t *testing.T) {
	p := NewLocalCSV(t.TempDir())
	_, _, err := p.FetchBars(context.Background(), "GHOST", time.Time{}, time.Time{}, 24*time.Hour)
	assert.Error(t, err)
}
