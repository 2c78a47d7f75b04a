package domain

import "fmt"

// SettlementMode controls when purchased shares become sellable.
type SettlementMode int

const (
	// Immediate settlement: shares can be sold the same day they are bought.
	Immediate SettlementMode = iota
	// NextDaySettle freezes shares bought on day D until day D+1.
	NextDaySettle
)

// ExecutionTiming controls which bar an order intent fills against.
type ExecutionTiming int

const (
	// SameBarClose fills at the close of the bar the decision was made on.
	SameBarClose ExecutionTiming = iota
	// NextBarOpen queues the intent and fills at the following bar's open.
	NextBarOpen
)

// MarketConfig bundles the friction model of a simulated market. It is
// immutable per strategy instance.
type MarketConfig struct {
	CommissionRate float64
	MinCommission  float64
	TaxRate        float64 // sell side only
	SlippageRate   float64
	VolumeLimit    float64 // max tradable fraction of the day's volume, 1 = unlimited
	Settlement     SettlementMode
	Timing         ExecutionTiming
}

// CNMarket models A-share trading: stamp tax on sells, minimum commission
// and next-day settlement.
func CNMarket() MarketConfig {
	return MarketConfig{
		CommissionRate: 0.00025,
		MinCommission:  5,
		TaxRate:        0.0005,
		SlippageRate:   0.001,
		VolumeLimit:    0.1,
		Settlement:     NextDaySettle,
		Timing:         SameBarClose,
	}
}

// USMarket models US equities: no sell tax, immediate settlement.
func USMarket() MarketConfig {
	return MarketConfig{
		CommissionRate: 0.0001,
		MinCommission:  1,
		TaxRate:        0,
		SlippageRate:   0.0005,
		VolumeLimit:    1,
		Settlement:     Immediate,
		Timing:         SameBarClose,
	}
}

// CryptoMarket models a spot crypto venue: flat taker fee, no minimum, wider
// slippage, no liquidity cap.
func CryptoMarket() MarketConfig {
	return MarketConfig{
		CommissionRate: 0.001,
		MinCommission:  0,
		TaxRate:        0,
		SlippageRate:   0.002,
		VolumeLimit:    1,
		Settlement:     Immediate,
		Timing:         SameBarClose,
	}
}

// Frictionless removes every cost and cap. Useful for isolating strategy
// behaviour in tests.
func Frictionless() MarketConfig {
	return MarketConfig{VolumeLimit: 1}
}

// Preset resolves a market preset by name.
func Preset(name string) (MarketConfig, error) {
	switch name {
	case "cn":
		return CNMarket(), nil
	case "us":
		return USMarket(), nil
	case "crypto":
		return CryptoMarket(), nil
	case "frictionless":
		return Frictionless(), nil
	default:
		return MarketConfig{}, fmt.Errorf("domain.Preset: unknown market preset %q", name)
	}
}
