package engine

// The execution engine turns order intents into fills against a single
// simulated brokerage account. All clipping rules compose in a fixed
// precedence: settlement, liquidity, price resolution, cash, cost, ledger
// mutation. Money is tracked in decimals and costs are rounded to cents so
// the ledger stays exact over long runs.

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketsim/internal/domain"
)

var one = decimal.NewFromInt(1)

// PriceSource answers the per-date price and volume lookups the engine
// needs. The simulation kernel backs it with the price history stores.
type PriceSource interface {
	PriceOn(asset string, date time.Time) (domain.PriceBar, bool)
	VolumeOn(asset string, date time.Time) float64
}

// Engine owns one strategy's ledger: available cash, per-asset holdings and
// the per-asset quantities frozen by next-day settlement. It is not safe for
// concurrent use; the kernel drives it strictly sequentially.
type Engine struct {
	cfg    domain.MarketConfig
	prices PriceSource

	cash     decimal.Decimal
	holdings map[string]decimal.Decimal
	frozen   map[string]decimal.Decimal
	trades   []domain.TradeRecord
}

// New creates an engine with the given starting cash.
func New(cfg domain.MarketConfig, initialCash float64, prices PriceSource) *Engine {
	return &Engine{
		cfg:      cfg,
		prices:   prices,
		cash:     decimal.NewFromFloat(initialCash),
		holdings: make(map[string]decimal.Decimal),
		frozen:   make(map[string]decimal.Decimal),
	}
}

// BeginDay clears every settlement freeze. The kernel calls it at the start
// of each tick, before any order is processed, so quantities bought on day D
// become sellable on day D+1 and no earlier.
func (e *Engine) BeginDay() {
	for asset := range e.frozen {
		delete(e.frozen, asset)
	}
}

// Submit executes a batch of order intents against the close prices of the
// given date, in the order they were produced. Orders that clip to zero or
// reference a date with no price leave no trace.
func (e *Engine) Submit(intents []domain.OrderIntent, asOf time.Time) []domain.TradeRecord {
	return e.submit(intents, asOf, false)
}

// SubmitAtOpen executes queued intents against the opening price of the
// given date. Used by the kernel to drain next-bar-open queues.
func (e *Engine) SubmitAtOpen(intents []domain.OrderIntent, asOf time.Time) []domain.TradeRecord {
	return e.submit(intents, asOf, true)
}

func (e *Engine) submit(intents []domain.OrderIntent, asOf time.Time, atOpen bool) []domain.TradeRecord {
	var fills []domain.TradeRecord
	for _, intent := range intents {
		if rec, ok := e.execute(intent, domain.Day(asOf), atOpen); ok {
			e.trades = append(e.trades, rec)
			fills = append(fills, rec)
		}
	}
	return fills
}

// execute applies the full rule chain to one intent. The boolean is false
// when the order was skipped or clipped away entirely.
func (e *Engine) execute(intent domain.OrderIntent, asOf time.Time, atOpen bool) (domain.TradeRecord, bool) {
	if intent.Quantity <= 0 {
		return domain.TradeRecord{}, false
	}
	qty := decimal.NewFromFloat(intent.Quantity)

	// 1. Settlement and share availability (sells only).
	if intent.Action == domain.Sell {
		sellable := e.holdings[intent.Asset]
		if e.cfg.Settlement == domain.NextDaySettle {
			sellable = sellable.Sub(e.frozen[intent.Asset])
		}
		if !sellable.IsPositive() {
			if e.frozen[intent.Asset].IsPositive() {
				slog.Warn("sell refused: all shares frozen by settlement",
					"asset", intent.Asset, "requested", intent.Quantity, "date", asOf.Format(time.DateOnly))
			}
			return domain.TradeRecord{}, false
		}
		if qty.GreaterThan(sellable) {
			if e.frozen[intent.Asset].IsPositive() {
				slog.Warn("sell clipped to unfrozen holdings",
					"asset", intent.Asset, "requested", intent.Quantity,
					"sellable", sellable.InexactFloat64(), "date", asOf.Format(time.DateOnly))
			}
			qty = sellable
		}
	}

	// 2. Liquidity cap: never take more than the configured fraction of the
	// day's traded volume.
	if e.cfg.VolumeLimit > 0 && e.cfg.VolumeLimit < 1 {
		limit := decimal.NewFromFloat(e.prices.VolumeOn(intent.Asset, asOf) * e.cfg.VolumeLimit)
		if qty.GreaterThan(limit) {
			slog.Warn("order clipped by daily volume limit",
				"asset", intent.Asset, "action", intent.Action.String(),
				"requested", intent.Quantity, "cap", limit.InexactFloat64(),
				"date", asOf.Format(time.DateOnly))
			qty = limit
		}
		if !qty.IsPositive() {
			return domain.TradeRecord{}, false
		}
	}

	// 3. Price resolution. No bar or no usable price aborts the order with
	// no state mutation.
	bar, ok := e.prices.PriceOn(intent.Asset, asOf)
	if !ok {
		slog.Debug("order skipped: no price data",
			"asset", intent.Asset, "date", asOf.Format(time.DateOnly))
		return domain.TradeRecord{}, false
	}
	rawPx := bar.Close
	if atOpen {
		rawPx = bar.Open
	}
	if rawPx <= 0 {
		slog.Debug("order skipped: price undefined",
			"asset", intent.Asset, "date", asOf.Format(time.DateOnly))
		return domain.TradeRecord{}, false
	}
	raw := decimal.NewFromFloat(rawPx)
	slip := decimal.NewFromFloat(e.cfg.SlippageRate)
	var exec decimal.Decimal
	if intent.Action == domain.Buy {
		exec = raw.Mul(one.Add(slip))
	} else {
		exec = raw.Mul(one.Sub(slip))
	}

	// 4. Cash cap (buys only): shrink the quantity until gross plus
	// commission fits the available cash. Never overdraw.
	if intent.Action == domain.Buy {
		qty = e.affordable(qty, exec)
		if !qty.IsPositive() {
			return domain.TradeRecord{}, false
		}
	}

	// 5. Cost model.
	gross := exec.Mul(qty)
	cost := e.commission(gross)
	if intent.Action == domain.Sell {
		cost = cost.Add(gross.Mul(decimal.NewFromFloat(e.cfg.TaxRate)).Round(2))
	}
	netCash := gross.Sub(cost)
	if intent.Action == domain.Buy {
		netCash = gross.Add(cost).Neg()
	}

	// 6. Ledger mutation.
	e.cash = e.cash.Add(netCash)
	if intent.Action == domain.Buy {
		e.holdings[intent.Asset] = e.holdings[intent.Asset].Add(qty)
		if e.cfg.Settlement == domain.NextDaySettle {
			e.frozen[intent.Asset] = e.frozen[intent.Asset].Add(qty)
		}
	} else {
		e.holdings[intent.Asset] = e.holdings[intent.Asset].Sub(qty)
	}

	return domain.TradeRecord{
		ID:           uuid.New().String(),
		Date:         asOf,
		Asset:        intent.Asset,
		Action:       intent.Action,
		Quantity:     qty,
		RawPrice:     raw,
		ExecPrice:    exec,
		Gross:        gross,
		Cost:         cost,
		SlippageCost: exec.Sub(raw).Abs().Mul(qty),
		NetCash:      netCash,
	}, true
}

// affordable clips a buy quantity so that gross value plus commission never
// exceeds the available cash. The corrective second pass covers the
// minimum-commission floor and cent rounding.
func (e *Engine) affordable(qty, price decimal.Decimal) decimal.Decimal {
	debit := func(q decimal.Decimal) decimal.Decimal {
		g := price.Mul(q)
		return g.Add(e.commission(g))
	}
	if debit(qty).LessThanOrEqual(e.cash) {
		return qty
	}

	rate := decimal.NewFromFloat(e.cfg.CommissionRate)
	clipped := e.cash.Div(price.Mul(one.Add(rate)))
	for i := 0; i < 3; i++ {
		over := debit(clipped).Sub(e.cash)
		if !over.IsPositive() {
			break
		}
		clipped = clipped.Sub(over.Div(price))
	}
	if !clipped.IsPositive() {
		return decimal.Zero
	}
	if clipped.LessThan(qty) {
		slog.Warn("buy clipped to available cash",
			"requested", qty.InexactFloat64(), "filled", clipped.InexactFloat64())
	}
	return clipped
}

// commission applies the configured rate with its minimum floor, rounded to
// cents (half away from zero).
func (e *Engine) commission(gross decimal.Decimal) decimal.Decimal {
	c := gross.Mul(decimal.NewFromFloat(e.cfg.CommissionRate))
	min := decimal.NewFromFloat(e.cfg.MinCommission)
	if c.LessThan(min) {
		c = min
	}
	return c.Round(2)
}

// Account returns a read-only snapshot of the ledger for strategies.
func (e *Engine) Account() domain.AccountView {
	view := domain.AccountView{
		Cash:     e.cash.InexactFloat64(),
		Holdings: make(map[string]float64, len(e.holdings)),
		Frozen:   make(map[string]float64, len(e.frozen)),
	}
	for asset, q := range e.holdings {
		if !q.IsZero() {
			view.Holdings[asset] = q.InexactFloat64()
		}
	}
	for asset, q := range e.frozen {
		if !q.IsZero() {
			view.Frozen[asset] = q.InexactFloat64()
		}
	}
	return view
}

// Cash returns the available cash.
func (e *Engine) Cash() float64 { return e.cash.InexactFloat64() }

// Holding returns the total held quantity of an asset, frozen included.
func (e *Engine) Holding(asset string) float64 {
	return e.holdings[asset].InexactFloat64()
}

// Sellable returns the quantity of an asset that can be sold today.
func (e *Engine) Sellable(asset string) float64 {
	s := e.holdings[asset]
	if e.cfg.Settlement == domain.NextDaySettle {
		s = s.Sub(e.frozen[asset])
	}
	if !s.IsPositive() {
		return 0
	}
	return s.InexactFloat64()
}

// Equity marks the account to market at the date's close prices. The second
// return is false when any held asset has no valid price that day, in which
// case no equity snapshot should be recorded.
func (e *Engine) Equity(asOf time.Time) (float64, bool) {
	total := e.cash.InexactFloat64()
	for asset, qty := range e.holdings {
		if qty.IsZero() {
			continue
		}
		bar, ok := e.prices.PriceOn(asset, domain.Day(asOf))
		if !ok || !bar.HasClose() {
			return 0, false
		}
		total += qty.InexactFloat64() * bar.Close
	}
	return total, true
}

// Trades returns the append-only trade log.
func (e *Engine) Trades() []domain.TradeRecord { return e.trades }
