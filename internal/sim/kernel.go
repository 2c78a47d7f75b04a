package sim

// The kernel is the simulation clock: it advances a fixed daily interval
// from start to end, and on every tick clears settlement holds, drains
// queued next-open orders, asks each strategy for decisions, evaluates
// conditional orders, submits the combined batch and records the equity
// snapshot. Everything is single-threaded and deterministic; only
// Initialize may block on I/O.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marketsim/internal/analytics"
	"marketsim/internal/domain"
	"marketsim/internal/engine"
	"marketsim/internal/pricehistory"
	"marketsim/internal/ports"
)

// State is the kernel lifecycle phase.
type State int

const (
	Uninitialized State = iota
	Initializing
	Running
	Finalized
)

var (
	errNotInitialized     = errors.New("sim: kernel not initialized")
	errAlreadyInitialized = errors.New("sim: kernel already initialized")
)

// Config holds the clock and data-loading parameters shared by every
// strategy attached to one kernel.
type Config struct {
	Start        time.Time
	End          time.Time
	Interval     time.Duration // 0 defaults to 24h
	Lookback     time.Duration // extra history loaded before Start for warmup
	RiskFreeRate float64

	Provider ports.BarProvider
	Cache    ports.BarCache
}

// Result is the post-run output of one strategy.
type Result struct {
	Strategy  string
	Trades    []domain.TradeRecord
	Snapshots []domain.EquitySnapshot
	Report    analytics.Report
}

type strategyRun struct {
	strategy  Strategy
	cfg       StrategyConfig
	ledger    *engine.Engine
	promises  *engine.PromiseBook
	queued    []domain.OrderIntent // FIFO drained at the next tick's open
	snapshots []domain.EquitySnapshot
}

// Kernel drives one simulation run over one or more strategies. Price
// history stores are shared read-only; each strategy owns its ledger.
type Kernel struct {
	cfg    Config
	state  State
	stores map[string]*pricehistory.Store
	runs   []*strategyRun
}

// New creates a kernel in the Uninitialized state.
func New(cfg Config) *Kernel {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &Kernel{
		cfg:    cfg,
		stores: make(map[string]*pricehistory.Store),
	}
}

// AddStrategy attaches a strategy with its own market config and starting
// cash. Must be called before Initialize.
func (k *Kernel) AddStrategy(s Strategy, cfg StrategyConfig) error {
	if k.state != Uninitialized {
		return errAlreadyInitialized
	}
	prices := kernelPrices{k}
	k.runs = append(k.runs, &strategyRun{
		strategy: s,
		cfg:      cfg,
		ledger:   engine.New(cfg.Market, cfg.InitialCash, prices),
		promises: engine.NewPromiseBook(prices),
	})
	return nil
}

// Initialize loads price history for every asset referenced by any attached
// strategy, covering [start − lookback, end], then runs the strategies'
// init hooks. A fetch failure aborts initialization — the simulation cannot
// run with a missing series.
func (k *Kernel) Initialize(ctx context.Context) error {
	if k.state != Uninitialized {
		return errAlreadyInitialized
	}
	k.state = Initializing

	loadStart := k.cfg.Start.Add(-k.cfg.Lookback)
	for _, r := range k.runs {
		for _, asset := range r.strategy.Assets() {
			if _, ok := k.stores[asset]; ok {
				continue
			}
			store := pricehistory.New(asset, k.cfg.Interval, k.cfg.Provider, k.cfg.Cache)
			if err := store.Init(ctx, loadStart, k.cfg.End); err != nil {
				return fmt.Errorf("sim.Initialize: %w", err)
			}
			k.stores[asset] = store
			slog.Info("price history loaded",
				"asset", asset, "bars", len(store.HistoryUpTo(k.cfg.End)))
		}
	}

	for _, r := range k.runs {
		if err := r.strategy.OnInit(); err != nil {
			return fmt.Errorf("sim.Initialize: strategy %s: %w", r.strategy.Name(), err)
		}
	}

	k.state = Running
	return nil
}

// Run advances the clock tick by tick until the end date. There is no
// cancellation: a run always reaches the end once initialized.
func (k *Kernel) Run() error {
	if k.state != Running {
		return errNotInitialized
	}
	start, end := domain.Day(k.cfg.Start), domain.Day(k.cfg.End)
	for date := start; !date.After(end); date = domain.Day(date.Add(k.cfg.Interval)) {
		for _, r := range k.runs {
			k.tick(r, date)
		}
	}
	return nil
}

// tick runs one strategy through one simulated day.
func (k *Kernel) tick(r *strategyRun, date time.Time) {
	// Shares bought before today settle now.
	r.ledger.BeginDay()

	// Orders deferred to this bar's open execute before today's decisions.
	if len(r.queued) > 0 {
		queued := r.queued
		r.queued = nil
		r.ledger.SubmitAtOpen(queued, date)
	}

	intents := r.strategy.Decide(Tick{
		Today:    date,
		History:  k.visibleHistory(r.strategy.Assets(), date),
		Account:  r.ledger.Account(),
		Promises: r.promises,
	})
	intents = append(intents, r.promises.Evaluate(date)...)

	if r.cfg.Market.Timing == domain.NextBarOpen {
		r.queued = append(r.queued, intents...)
	} else if len(intents) > 0 {
		r.ledger.Submit(intents, date)
	}

	// Mark to market only on days every held asset is priced; a missing bar
	// must not fabricate a drawdown.
	if equity, ok := r.ledger.Equity(date); ok {
		r.snapshots = append(r.snapshots, domain.EquitySnapshot{Date: date, Equity: equity})
	}
}

// Finalize runs the teardown hooks and produces each strategy's trade log,
// equity curve and performance report.
func (k *Kernel) Finalize() []Result {
	if k.state == Finalized {
		return nil
	}
	k.state = Finalized

	results := make([]Result, 0, len(k.runs))
	for _, r := range k.runs {
		r.strategy.OnFinalize()
		results = append(results, Result{
			Strategy:  r.strategy.Name(),
			Trades:    r.ledger.Trades(),
			Snapshots: r.snapshots,
			Report:    analytics.Analyze(r.snapshots, r.cfg.InitialCash, k.cfg.RiskFreeRate),
		})
	}
	return results
}

// State returns the current lifecycle phase.
func (k *Kernel) State() State { return k.state }

// visibleHistory builds the point-in-time view handed to a strategy: bars
// up to and including the given date, never beyond it.
func (k *Kernel) visibleHistory(assets []string, date time.Time) map[string]domain.Series {
	out := make(map[string]domain.Series, len(assets))
	for _, asset := range assets {
		if store, ok := k.stores[asset]; ok {
			out[asset] = store.HistoryUpTo(date)
		}
	}
	return out
}

// kernelPrices adapts the kernel's store map to the engine's PriceSource.
type kernelPrices struct {
	k *Kernel
}

func (p kernelPrices) PriceOn(asset string, date time.Time) (domain.PriceBar, bool) {
	store, ok := p.k.stores[asset]
	if !ok {
		return domain.PriceBar{}, false
	}
	return store.PriceOn(date)
}

func (p kernelPrices) VolumeOn(asset string, date time.Time) float64 {
	store, ok := p.k.stores[asset]
	if !ok {
		return 0
	}
	return store.VolumeOn(date)
}
