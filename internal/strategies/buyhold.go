package strategies

import (
	"marketsim/internal/domain"
	"marketsim/internal/sim"
)

// BuyHold spends everything on the first priced bar and never trades again.
// It exists as the benchmark every other strategy has to beat.
type BuyHold struct {
	asset  string
	bought bool
}

// NewBuyHold creates the benchmark strategy for one asset.
func NewBuyHold(asset string) *BuyHold {
	return &BuyHold{asset: asset}
}

func (s *BuyHold) Name() string     { return "buy-hold-" + s.asset }
func (s *BuyHold) Assets() []string { return []string{s.asset} }
func (s *BuyHold) OnInit() error    { return nil }
func (s *BuyHold) OnFinalize()      {}

func (s *BuyHold) Decide(tick sim.Tick) []domain.OrderIntent {
	if s.bought {
		return nil
	}
	bar, ok := tick.History[s.asset].Last()
	if !ok || !bar.HasClose() {
		return nil
	}
	s.bought = true
	return []domain.OrderIntent{{
		Asset:    s.asset,
		Action:   domain.Buy,
		Quantity: tick.Account.Cash / bar.Close,
	}}
}
