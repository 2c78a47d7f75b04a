package domain

// AccountView is the read-only account state handed to strategies on each
// tick. Mutation happens only inside the execution engine.
type AccountView struct {
	Cash     float64
	Holdings map[string]float64
	Frozen   map[string]float64 // bought but not yet settled, unsellable today
}

// Sellable returns the quantity of an asset that can be sold right now.
func (a AccountView) Sellable(asset string) float64 {
	s := a.Holdings[asset] - a.Frozen[asset]
	if s < 0 {
		return 0
	}
	return s
}

// Equity marks the account to market against the given close prices. The
// second return is false when a held asset has no price entry.
func (a AccountView) Equity(closes map[string]float64) (float64, bool) {
	total := a.Cash
	for asset, qty := range a.Holdings {
		if qty == 0 {
			continue
		}
		px, ok := closes[asset]
		if !ok {
			return 0, false
		}
		total += qty * px
	}
	return total, true
}
