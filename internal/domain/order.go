package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the direction of an order intent.
type Action int

const (
	Buy Action = iota
	Sell
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// OrderIntent is a desired trade produced by a strategy or by a fired
// conditional order. Quantity is a request, not a guarantee — the execution
// engine clips it against cash, holdings, settlement and liquidity.
type OrderIntent struct {
	Asset    string
	Action   Action
	Quantity float64
}

// TradeRecord is one executed fill. The trade log is append-only; orders
// that clip to zero quantity leave no record.
type TradeRecord struct {
	ID           string
	Date         time.Time
	Asset        string
	Action       Action
	Quantity     decimal.Decimal
	RawPrice     decimal.Decimal // reference price before slippage
	ExecPrice    decimal.Decimal // price actually filled at
	Gross        decimal.Decimal // ExecPrice × Quantity
	Cost         decimal.Decimal // commission plus sell-side tax, in cents
	SlippageCost decimal.Decimal // |ExecPrice − RawPrice| × Quantity
	NetCash      decimal.Decimal // signed cash delta applied to the ledger
}

// SignedQuantity returns the holding delta: positive for buys, negative
// for sells.
func (t TradeRecord) SignedQuantity() decimal.Decimal {
	if t.Action == Sell {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// Describe renders the fill as a human-readable decision line.
func (t TradeRecord) Describe() string {
	return fmt.Sprintf("%s %s %s @ %s (net %s)",
		t.Action, t.Quantity.StringFixed(2), t.Asset,
		t.ExecPrice.StringFixed(2), t.NetCash.StringFixed(2))
}
