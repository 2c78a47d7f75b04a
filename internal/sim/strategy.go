package sim

import (
	"time"

	"marketsim/internal/domain"
	"marketsim/internal/engine"
)

// Tick is everything a strategy may look at when deciding: today's date,
// the point-in-time price history of its assets (never containing bars
// dated after today), its account state, and its promise book for placing
// conditional orders.
type Tick struct {
	Today    time.Time
	History  map[string]domain.Series
	Account  domain.AccountView
	Promises *engine.PromiseBook
}

// Strategy is the decision callback contract. Implementations hold their
// own parameters and scratch state; the kernel owns the ledger.
type Strategy interface {
	// Name labels the strategy in logs and reports.
	Name() string

	// Assets lists every asset the strategy wants price history for.
	Assets() []string

	// OnInit runs after price data is loaded, before the first tick.
	OnInit() error

	// Decide returns zero or more order intents for the current tick.
	Decide(tick Tick) []domain.OrderIntent

	// OnFinalize runs once after the last tick.
	OnFinalize()
}

// StrategyConfig carries the per-strategy simulation parameters.
type StrategyConfig struct {
	Market      domain.MarketConfig
	InitialCash float64
}
