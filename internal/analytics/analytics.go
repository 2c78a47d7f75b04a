package analytics

// Pure post-run statistics over the daily equity curve. Everything here must
// tolerate empty and single-point series — a simulation that never produced
// a valid snapshot still gets a report, just a trivial one.

import (
	"math"

	"marketsim/internal/domain"
)

const tradingDaysPerYear = 252

// Report summarizes one strategy run.
type Report struct {
	InitialCapital float64
	FinalEquity    float64
	TotalReturn    float64 // final/initial − 1
	CAGR           float64 // annualized by calendar days
	MaxDrawdown    float64 // most negative peak-to-trough fraction, ≤ 0
	SharpeRatio    float64 // annualized, daily returns vs risk-free rate
	DurationDays   float64
	Snapshots      int
}

// Analyze computes the report from the equity snapshots of one run.
// riskFreeRate is annual (e.g. 0.03 for 3%).
func Analyze(snapshots []domain.EquitySnapshot, initialCapital, riskFreeRate float64) Report {
	rep := Report{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		Snapshots:      len(snapshots),
	}
	if len(snapshots) == 0 {
		return rep
	}

	first, last := snapshots[0], snapshots[len(snapshots)-1]
	rep.FinalEquity = last.Equity
	rep.DurationDays = last.Date.Sub(first.Date).Hours() / 24

	if initialCapital > 0 {
		rep.TotalReturn = last.Equity/initialCapital - 1
	}
	if rep.DurationDays > 0 && initialCapital > 0 && last.Equity > 0 {
		rep.CAGR = math.Pow(last.Equity/initialCapital, 365/rep.DurationDays) - 1
	}

	rep.MaxDrawdown = MaxDrawdown(snapshots)
	rep.SharpeRatio = sharpe(snapshots, riskFreeRate)
	return rep
}

// MaxDrawdown returns the most negative fractional decline from the running
// equity peak, 0 when the curve never declines.
func MaxDrawdown(snapshots []domain.EquitySnapshot) float64 {
	var worst float64
	peak := math.Inf(-1)
	for _, s := range snapshots {
		if s.Equity > peak {
			peak = s.Equity
		}
		if peak > 0 {
			if dd := (s.Equity - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// sharpe annualizes the mean daily excess return over its sample standard
// deviation. Zero-variance return series yield 0 rather than a division
// blowup.
func sharpe(snapshots []domain.EquitySnapshot, riskFreeRate float64) float64 {
	var returns []float64
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, snapshots[i].Equity/prev-1-riskFreeRate/tradingDaysPerYear)
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	std := math.Sqrt(ss / float64(len(returns)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}
