package strategies

import (
	"log/slog"

	"github.com/thrasher-corp/gct-ta/indicators"

	"marketsim/internal/domain"
	"marketsim/internal/sim"
)

// RSIConfig tunes the RSI threshold strategy.
type RSIConfig struct {
	Asset        string
	Period       int     // RSI lookback, default 14
	BuyBelow     float64 // oversold threshold, default 30
	SellAbove    float64 // overbought threshold, default 70
	CashFraction float64 // fraction of free cash spent per buy, default 0.5
}

// RSI buys the asset when it is oversold and liquidates when overbought.
// One position at a time; quantity is derived from free cash at the last
// close.
type RSI struct {
	cfg RSIConfig
}

// NewRSI creates the strategy, filling zero config fields with defaults.
func NewRSI(cfg RSIConfig) *RSI {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.BuyBelow <= 0 {
		cfg.BuyBelow = 30
	}
	if cfg.SellAbove <= 0 {
		cfg.SellAbove = 70
	}
	if cfg.CashFraction <= 0 || cfg.CashFraction > 1 {
		cfg.CashFraction = 0.5
	}
	return &RSI{cfg: cfg}
}

func (s *RSI) Name() string     { return "rsi-" + s.cfg.Asset }
func (s *RSI) Assets() []string { return []string{s.cfg.Asset} }
func (s *RSI) OnInit() error    { return nil }
func (s *RSI) OnFinalize()      {}

// Decide computes the RSI over the visible history and emits at most one
// intent.
func (s *RSI) Decide(tick sim.Tick) []domain.OrderIntent {
	history := tick.History[s.cfg.Asset]
	closes := history.Closes()
	if len(closes) <= s.cfg.Period {
		return nil
	}

	rsi := indicators.RSI(closes, s.cfg.Period)
	last := rsi[len(rsi)-1]

	switch {
	case last < s.cfg.BuyBelow:
		bar, ok := history.Last()
		if !ok || !bar.HasClose() {
			return nil
		}
		qty := tick.Account.Cash * s.cfg.CashFraction / bar.Close
		if qty <= 0 {
			return nil
		}
		slog.Debug("rsi oversold", "asset", s.cfg.Asset, "rsi", last, "qty", qty)
		return []domain.OrderIntent{{Asset: s.cfg.Asset, Action: domain.Buy, Quantity: qty}}

	case last > s.cfg.SellAbove:
		qty := tick.Account.Sellable(s.cfg.Asset)
		if qty <= 0 {
			return nil
		}
		slog.Debug("rsi overbought", "asset", s.cfg.Asset, "rsi", last, "qty", qty)
		return []domain.OrderIntent{{Asset: s.cfg.Asset, Action: domain.Sell, Quantity: qty}}
	}
	return nil
}
