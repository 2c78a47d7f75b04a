package engine

// Conditional orders ("promises") are deferred triggers a strategy parks
// with the engine: sell when the price reaches a target, buy on a dip, or
// fire unconditionally once the expiry passes so no promise lives forever.

import (
	"time"

	"github.com/google/uuid"

	"marketsim/internal/domain"
)

// ConditionalOrder is a deferred order intent with a price trigger and a
// hard expiry.
type ConditionalOrder struct {
	ID           string
	Asset        string
	Action       domain.Action
	TriggerPrice float64
	Expiry       time.Time
	Quantity     float64
}

// triggered reports whether the close price satisfies the order's
// condition: buys fire at or below the trigger, sells at or above it.
func (o ConditionalOrder) triggered(close float64) bool {
	if o.Action == domain.Buy {
		return close <= o.TriggerPrice
	}
	return close >= o.TriggerPrice
}

// PromiseBook holds the pending conditional orders of one strategy and
// evaluates them once per tick.
type PromiseBook struct {
	prices  PriceSource
	pending []ConditionalOrder
}

// NewPromiseBook creates an empty book backed by the given price source.
func NewPromiseBook(prices PriceSource) *PromiseBook {
	return &PromiseBook{prices: prices}
}

// Place adds a conditional order, assigning an ID when the caller left it
// empty.
func (b *PromiseBook) Place(o ConditionalOrder) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.Expiry = domain.Day(o.Expiry)
	b.pending = append(b.pending, o)
}

// Evaluate fires every order whose price condition is met on the given date
// and force-fires expired ones regardless of price. Fired orders are
// removed and yield exactly one intent each at their stored quantity.
// Orders whose asset has no valid price that day stay pending.
func (b *PromiseBook) Evaluate(asOf time.Time) []domain.OrderIntent {
	asOf = domain.Day(asOf)

	var intents []domain.OrderIntent
	keep := b.pending[:0]
	for _, o := range b.pending {
		if asOf.After(o.Expiry) {
			intents = append(intents, o.intent())
			continue
		}
		bar, ok := b.prices.PriceOn(o.Asset, asOf)
		if !ok || !bar.HasClose() {
			keep = append(keep, o)
			continue
		}
		if o.triggered(bar.Close) {
			intents = append(intents, o.intent())
			continue
		}
		keep = append(keep, o)
	}
	b.pending = keep
	return intents
}

// Pending returns the number of orders still waiting.
func (b *PromiseBook) Pending() int { return len(b.pending) }

func (o ConditionalOrder) intent() domain.OrderIntent {
	return domain.OrderIntent{Asset: o.Asset, Action: o.Action, Quantity: o.Quantity}
}
