package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsim/internal/domain"
	"marketsim/internal/ports"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeProvider serves a fixed bar set for every asset.
type fakeProvider struct {
	bars []domain.PriceBar
}

func (f *fakeProvider) Source() string { return "fake" }

func (f *fakeProvider) FetchBars(context.Context, string, time.Time, time.Time, time.Duration) ([]domain.PriceBar, []byte, error) {
	return f.bars, nil, nil
}

// nullCache never hits and swallows saves.
type nullCache struct{}

func (nullCache) Load(context.Context, ports.CacheKey) (*ports.CachedSeries, error) { return nil, nil }
func (nullCache) Save(context.Context, ports.CacheKey, []byte, []domain.PriceBar) error {
	return nil
}
func (nullCache) Close() error { return nil }

// scriptStrategy emits a fixed intent on a chosen tick and records what each
// tick was allowed to see.
type scriptStrategy struct {
	asset     string
	buyOn     time.Time
	histDates []time.Time // last visible bar date per tick
	ticks     int
}

func (s *scriptStrategy) Name() string     { return "script" }
func (s *scriptStrategy) Assets() []string { return []string{s.asset} }
func (s *scriptStrategy) OnInit() error    { return nil }
func (s *scriptStrategy) OnFinalize()      {}

func (s *scriptStrategy) Decide(tick Tick) []domain.OrderIntent {
	s.ticks++
	if last, ok := tick.History[s.asset].Last(); ok {
		s.histDates = append(s.histDates, last.Date)
		if last.Date.After(tick.Today) {
			panic("history leaked a future bar")
		}
	}
	if !s.buyOn.IsZero() && tick.Today.Equal(s.buyOn) {
		return []domain.OrderIntent{{Asset: s.asset, Action: domain.Buy, Quantity: 10}}
	}
	return nil
}

func bars(dates ...string) []domain.PriceBar {
	out := make([]domain.PriceBar, 0, len(dates))
	for i, d := range dates {
		out = append(out, domain.PriceBar{
			Date:   day(d),
			Open:   100 + float64(i),
			Close:  110 + float64(i),
			Volume: 1e6,
		})
	}
	return out
}

func newTestKernel(provider ports.BarProvider) *Kernel {
	return New(Config{
		Start:    day("2024-01-01"),
		End:      day("2024-01-05"),
		Provider: provider,
		Cache:    nullCache{},
	})
}

func TestKernel_Lifecycle(t *testing.T) {
	k := newTestKernel(&fakeProvider{bars: bars("2024-01-01")})
	s := &scriptStrategy{asset: "AAPL"}
	require.NoError(t, k.AddStrategy(s, StrategyConfig{Market: domain.Frictionless(), InitialCash: 1000}))

	assert.Error(t, k.Run()) // not initialized yet

	require.NoError(t, k.Initialize(context.Background()))
	assert.Error(t, k.Initialize(context.Background())) // double init
	assert.Error(t, k.AddStrategy(s, StrategyConfig{})) // too late

	require.NoError(t, k.Run())
	assert.Equal(t, 5, s.ticks) // Jan 1..5 inclusive

	results := k.Finalize()
	require.Len(t, results, 1)
	assert.Equal(t, "script", results[0].Strategy)
	assert.Nil(t, k.Finalize()) // idempotent
}

func TestKernel_HistoryNeverContainsFutureBars(t *testing.T) {
	k := newTestKernel(&fakeProvider{bars: bars(
		"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05")})
	s := &scriptStrategy{asset: "AAPL"}
	require.NoError(t, k.AddStrategy(s, StrategyConfig{Market: domain.Frictionless(), InitialCash: 1000}))
	require.NoError(t, k.Initialize(context.Background()))
	require.NoError(t, k.Run())

	require.Len(t, s.histDates, 5)
	for i, d := range s.histDates {
		assert.Equal(t, day("2024-01-01").AddDate(0, 0, i), d)
	}
}

func TestKernel_SameBarCloseFillsSameDay(t *testing.T) {
	k := newTestKernel(&fakeProvider{bars: bars("2024-01-01", "2024-01-02", "2024-01-03")})
	s := &scriptStrategy{asset: "AAPL", buyOn: day("2024-01-02")}
	require.NoError(t, k.AddStrategy(s, StrategyConfig{Market: domain.Frictionless(), InitialCash: 100_000}))
	require.NoError(t, k.Initialize(context.Background()))
	require.NoError(t, k.Run())

	results := k.Finalize()
	require.Len(t, results[0].Trades, 1)
	trade := results[0].Trades[0]
	assert.Equal(t, day("2024-01-02"), trade.Date)
	assert.Equal(t, "111", trade.RawPrice.String()) // Jan 2 close
}

// With next-bar-open timing the decision on day D fills at day D+1's open.
func TestKernel_NextBarOpenFillsNextMorning(t *testing.T) {
	k := newTestKernel(&fakeProvider{bars: bars("2024-01-01", "2024-01-02", "2024-01-03")})
	s := &scriptStrategy{asset: "AAPL", buyOn: day("2024-01-02")}

	cfg := domain.Frictionless()
	cfg.Timing = domain.NextBarOpen
	require.NoError(t, k.AddStrategy(s, StrategyConfig{Market: cfg, InitialCash: 100_000}))
	require.NoError(t, k.Initialize(context.Background()))
	require.NoError(t, k.Run())

	results := k.Finalize()
	require.Len(t, results[0].Trades, 1)
	trade := results[0].Trades[0]
	assert.Equal(t, day("2024-01-03"), trade.Date)
	assert.Equal(t, "102", trade.RawPrice.String()) // Jan 3 open
}

// A held asset with no bar on a date must skip that day's snapshot rather
// than mark the position to zero.
func TestKernel_SnapshotSkippedWhenHeldAssetUnpriced(t *testing.T) {
	k := newTestKernel(&fakeProvider{bars: bars(
		"2024-01-01", "2024-01-02", "2024-01-04", "2024-01-05")}) // Jan 3 missing
	s := &scriptStrategy{asset: "AAPL", buyOn: day("2024-01-01")}
	require.NoError(t, k.AddStrategy(s, StrategyConfig{Market: domain.Frictionless(), InitialCash: 100_000}))
	require.NoError(t, k.Initialize(context.Background()))
	require.NoError(t, k.Run())

	results := k.Finalize()
	snaps := results[0].Snapshots
	require.Len(t, snaps, 4)
	for _, snap := range snaps {
		assert.NotEqual(t, day("2024-01-03"), snap.Date)
		assert.Greater(t, snap.Equity, 0.0)
	}
}

func TestKernel_MissingSeriesAbortsInit(t *testing.T) {
	k := newTestKernel(&fakeProvider{}) // provider returns no bars
	s := &scriptStrategy{asset: "AAPL"}
	require.NoError(t, k.AddStrategy(s, StrategyConfig{Market: domain.Frictionless(), InitialCash: 1000}))
	assert.Error(t, k.Initialize(context.Background()))
}
