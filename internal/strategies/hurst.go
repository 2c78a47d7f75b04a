package strategies

import (
	"log/slog"

	"github.com/thrasher-corp/gct-ta/indicators"

	"marketsim/internal/domain"
	"marketsim/internal/engine"
	"marketsim/internal/quant"
	"marketsim/internal/sim"
)

// HurstConfig tunes the persistence-following strategy.
type HurstConfig struct {
	Asset        string
	Window       int     // bars fed to the R/S analysis, default 120
	MinHurst     float64 // persistence threshold to act on, default 0.55
	SMAPeriod    int     // trend filter period, default 20
	CashFraction float64 // fraction of free cash spent per entry, default 0.8
	TakeProfit   float64 // fractional gain at which a sell promise triggers, default 0.15
	PromiseLife  int     // calendar days before a promise force-fires, default 30
}

// Hurst trades persistence: when R/S analysis says the series trends and the
// short trend is up, it enters and parks a take-profit conditional order;
// when the trend turns down it exits whatever is sellable.
type Hurst struct {
	cfg     HurstConfig
	entered bool
}

// NewHurst creates the strategy, filling zero config fields with defaults.
func NewHurst(cfg HurstConfig) *Hurst {
	if cfg.Window <= 0 {
		cfg.Window = 120
	}
	if cfg.MinHurst <= 0 {
		cfg.MinHurst = 0.55
	}
	if cfg.SMAPeriod <= 0 {
		cfg.SMAPeriod = 20
	}
	if cfg.CashFraction <= 0 || cfg.CashFraction > 1 {
		cfg.CashFraction = 0.8
	}
	if cfg.TakeProfit <= 0 {
		cfg.TakeProfit = 0.15
	}
	if cfg.PromiseLife <= 0 {
		cfg.PromiseLife = 30
	}
	return &Hurst{cfg: cfg}
}

func (s *Hurst) Name() string     { return "hurst-" + s.cfg.Asset }
func (s *Hurst) Assets() []string { return []string{s.cfg.Asset} }
func (s *Hurst) OnInit() error    { return nil }
func (s *Hurst) OnFinalize()      {}

func (s *Hurst) Decide(tick sim.Tick) []domain.OrderIntent {
	history := tick.History[s.cfg.Asset]
	closes := history.Closes()
	if len(closes) < s.cfg.Window {
		return nil
	}
	window := closes[len(closes)-s.cfg.Window:]

	h := quant.HurstRS(window, 8)
	sma := indicators.SMA(closes, s.cfg.SMAPeriod)
	last := closes[len(closes)-1]
	aboveTrend := last > sma[len(sma)-1]

	if h >= s.cfg.MinHurst && aboveTrend && !s.entered {
		qty := tick.Account.Cash * s.cfg.CashFraction / last
		if qty <= 0 {
			return nil
		}
		s.entered = true
		slog.Info("entering persistent trend",
			"asset", s.cfg.Asset, "hurst", h, "price", last)

		// Park the exit before the fill: sell once the price reaches the
		// target, or at expiry regardless.
		tick.Promises.Place(engine.ConditionalOrder{
			Asset:        s.cfg.Asset,
			Action:       domain.Sell,
			TriggerPrice: last * (1 + s.cfg.TakeProfit),
			Expiry:       tick.Today.AddDate(0, 0, s.cfg.PromiseLife),
			Quantity:     qty,
		})
		return []domain.OrderIntent{{Asset: s.cfg.Asset, Action: domain.Buy, Quantity: qty}}
	}

	if s.entered && !aboveTrend {
		qty := tick.Account.Sellable(s.cfg.Asset)
		s.entered = false
		if qty <= 0 {
			return nil
		}
		slog.Info("trend broke, exiting", "asset", s.cfg.Asset, "hurst", h)
		return []domain.OrderIntent{{Asset: s.cfg.Asset, Action: domain.Sell, Quantity: qty}}
	}
	return nil
}
