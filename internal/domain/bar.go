package domain

import "time"

// PriceBar is one daily price/volume record for an asset. Bars are immutable
// once fetched and unique per (asset, date).
type PriceBar struct {
	Date     time.Time
	Open     float64
	Close    float64
	High     float64
	Low      float64
	Volume   float64
	Dividend float64 // per-share cash dividend paid that day, 0 when none
	PE       float64 // trailing P/E when the source provides it, 0 when absent
}

// HasClose reports whether the bar carries a usable close price.
func (b PriceBar) HasClose() bool {
	return b.Close > 0
}

// Day truncates t to UTC day granularity. Bar dates and tick times are
// always compared at this resolution.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Series is an ascending-by-date sequence of bars for a single asset.
type Series []PriceBar

// Closes returns the close prices in date order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Last returns the most recent bar and whether the series is non-empty.
func (s Series) Last() (PriceBar, bool) {
	if len(s) == 0 {
		return PriceBar{}, false
	}
	return s[len(s)-1], true
}

// Window returns the bars dated on or after from.
func (s Series) Window(from time.Time) Series {
	from = Day(from)
	for i, b := range s {
		if !b.Date.Before(from) {
			return s[i:]
		}
	}
	return nil
}

// CloseOn returns the close price on the given date, or false when the
// series has no bar for it.
func (s Series) CloseOn(date time.Time) (float64, bool) {
	date = Day(date)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Date.Equal(date) {
			return s[i].Close, true
		}
		if s[i].Date.Before(date) {
			break
		}
	}
	return 0, false
}

// EquitySnapshot is the mark-to-market account value recorded once per tick
// on which every held asset had a valid price.
type EquitySnapshot struct {
	Date   time.Time
	Equity float64
}
