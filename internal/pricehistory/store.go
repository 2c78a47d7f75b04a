package pricehistory

// The price history store owns the cache-or-fetch lifecycle for one asset's
// daily bars. It is populated once during simulation initialization and is
// read-only afterwards, so query methods need no locking.

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"marketsim/internal/domain"
	"marketsim/internal/ports"
)

// completenessSlack is how many trailing days a cached range may fall short
// of the requested end and still count as complete. It absorbs weekends and
// holidays at the edge of the range so a fresh cache is not refetched every
// run.
const completenessSlack = 4 * 24 * time.Hour

// Store holds the ordered daily bars of a single asset and answers
// date-indexed point and range queries.
type Store struct {
	asset    string
	interval time.Duration
	provider ports.BarProvider
	cache    ports.BarCache

	bars  domain.Series
	index map[time.Time]int
}

// New builds an uninitialized store. Init must be called before any query.
func New(asset string, interval time.Duration, provider ports.BarProvider, cache ports.BarCache) *Store {
	return &Store{
		asset:    asset,
		interval: interval,
		provider: provider,
		cache:    cache,
	}
}

// Asset returns the asset identifier this store serves.
func (s *Store) Asset() string { return s.asset }

// Init loads bars covering [start, end]. A cache unit whose stored range
// already covers the request (minus the trailing slack) is used as-is with
// zero fetches. Otherwise the provider is queried and the result merged into
// the cache, new rows overriding old ones on date collisions. An unreadable
// cache triggers a full re-fetch; only a fetch failure propagates.
func (s *Store) Init(ctx context.Context, start, end time.Time) error {
	start, end = domain.Day(start), domain.Day(end)
	key := ports.CacheKey{Asset: s.asset, Source: s.provider.Source(), Interval: s.interval}

	var cached []domain.PriceBar
	unit, err := s.cache.Load(ctx, key)
	if err != nil {
		slog.Warn("price cache unreadable, re-fetching", "asset", s.asset, "err", err)
	} else if unit != nil {
		cached = unit.Bars
		if rangeComplete(cached, start, end) {
			s.setBars(cached)
			slog.Debug("price cache hit", "asset", s.asset, "bars", len(cached))
			return nil
		}
		slog.Debug("price cache partial, fetching", "asset", s.asset, "bars", len(cached))
	}

	fetched, raw, err := s.provider.FetchBars(ctx, s.asset, start, end, s.interval)
	if err != nil {
		return fmt.Errorf("pricehistory.Init: fetch %s from %s: %w", s.asset, s.provider.Source(), err)
	}
	merged := mergeBars(cached, fetched)
	if len(merged) == 0 {
		return fmt.Errorf("pricehistory.Init: source %s returned no bars for %s", s.provider.Source(), s.asset)
	}

	if err := s.cache.Save(ctx, key, raw, merged); err != nil {
		// A broken cache only costs a re-fetch next run.
		slog.Warn("price cache save failed", "asset", s.asset, "err", err)
	}

	s.setBars(merged)
	return nil
}

// PriceOn returns the bar for the given date.
func (s *Store) PriceOn(date time.Time) (domain.PriceBar, bool) {
	i, ok := s.index[domain.Day(date)]
	if !ok {
		return domain.PriceBar{}, false
	}
	return s.bars[i], true
}

// HistoryUpTo returns every bar dated on or before the given date, ascending.
// The result shares the store's backing array and must not be mutated.
func (s *Store) HistoryUpTo(date time.Time) domain.Series {
	d := domain.Day(date)
	n := sort.Search(len(s.bars), func(i int) bool {
		return s.bars[i].Date.After(d)
	})
	return s.bars[:n]
}

// VolumeOn returns the traded volume for the date, 0 when absent.
func (s *Store) VolumeOn(date time.Time) float64 {
	bar, ok := s.PriceOn(date)
	if !ok {
		return 0
	}
	return bar.Volume
}

func (s *Store) setBars(bars []domain.PriceBar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	s.bars = bars
	s.index = make(map[time.Time]int, len(bars))
	for i, b := range bars {
		s.index[b.Date] = i
	}
}

// rangeComplete reports whether cached bars cover [start, end−slack].
func rangeComplete(bars []domain.PriceBar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	min, max := bars[0].Date, bars[0].Date
	for _, b := range bars[1:] {
		if b.Date.Before(min) {
			min = b.Date
		}
		if b.Date.After(max) {
			max = b.Date
		}
	}
	return !min.After(start) && !max.Before(end.Add(-completenessSlack))
}

// mergeBars combines old and new bars by date; new rows win on collisions
// and no date ever appears twice.
func mergeBars(old, new []domain.PriceBar) []domain.PriceBar {
	byDate := make(map[time.Time]domain.PriceBar, len(old)+len(new))
	for _, b := range old {
		b.Date = domain.Day(b.Date)
		byDate[b.Date] = b
	}
	for _, b := range new {
		b.Date = domain.Day(b.Date)
		byDate[b.Date] = b
	}
	out := make([]domain.PriceBar, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
